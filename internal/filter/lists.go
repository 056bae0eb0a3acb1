package filter

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Lists holds the denylists, one slice per recognized category.
type Lists struct {
	BoilerplatePhrases  []string `mapstructure:"boilerplatePhrases" json:"boilerplatePhrases"`
	ShortHallucinations []string `mapstructure:"shortHallucinations" json:"shortHallucinations"`
	// KnownHallucinations are stripped out of transcripts rather than
	// suppressing the whole text.
	KnownHallucinations []string `mapstructure:"knownHallucinations" json:"knownHallucinations"`
}

// Config is the complete filter configuration.
type Config struct {
	Severity Severity `mapstructure:"severity" json:"severity"`
	Lists    `mapstructure:",squash"`
}

// OverrideSeverity replaces the configured severity with s unless s is
// empty, in which case the file or default value stands.
func (c *Config) OverrideSeverity(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	sev, err := ParseSeverity(s)
	if err != nil {
		return err
	}
	c.Severity = sev
	return nil
}

// DefaultLists returns the built-in denylists.
func DefaultLists() Lists {
	return Lists{
		BoilerplatePhrases: []string{
			"thank you for watching",
			"thanks for watching",
			"thank you for view",
			"thanks for view",
			"subscribe to the channel",
			"the translator for the channel",
			"amara.org",
			"شكراً على المشاهدة",
			"شكرا على المشاهدة",
			"اشتركوا في القناة",
			"لا تنسوا الاشتراك",
			"ترجمة نانسي قنقر",
		},
		ShortHallucinations: []string{
			"you're welcome",
			"youre welcome",
			"you are welcome",
			"your welcome",
			"ur welcome",
			"welcome",
			"no problem",
			"no worries",
			"anytime",
			"عفواً",
			"عفوا",
			"أهلاً بك",
			"أهلا بك",
			"أهلاً",
			"أهلا",
			"مرحباً",
			"مرحبا",
		},
		KnownHallucinations: []string{
			"Nancy Quankar",
			"Subscribe to the channel",
			"The translator for the channel",
			"Amara.org",
			"Thanks for watching",
			"Amoudo",
			"Southerner",
			"converted to Islam",
			"اشتركوا في القناة",
			"لا تنسوا الاشتراك",
			"ترجمة نانسي قنقر",
		},
	}
}

// DefaultConfig returns the standard severity with the built-in lists.
func DefaultConfig() Config {
	return Config{
		Severity: SeverityStandard,
		Lists:    DefaultLists(),
	}
}

// LoadConfig reads a filter configuration file (YAML, JSON or TOML).
// Categories missing from the file keep their built-in defaults; an empty
// list in the file disables that category.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read filter config %s: %w", path, err)
	}

	if v.IsSet("severity") {
		sev, err := ParseSeverity(v.GetString("severity"))
		if err != nil {
			return cfg, err
		}
		cfg.Severity = sev
	}
	if v.IsSet("boilerplatePhrases") {
		cfg.BoilerplatePhrases = cleanList(v.GetStringSlice("boilerplatePhrases"))
	}
	if v.IsSet("shortHallucinations") {
		cfg.ShortHallucinations = cleanList(v.GetStringSlice("shortHallucinations"))
	}
	if v.IsSet("knownHallucinations") {
		cfg.KnownHallucinations = cleanList(v.GetStringSlice("knownHallucinations"))
	}

	return cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
