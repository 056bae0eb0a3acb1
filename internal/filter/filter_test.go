package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"", SeverityStandard, false},
		{"standard", SeverityStandard, false},
		{"LENIENT", SeverityLenient, false},
		{" strict ", SeverityStrict, false},
		{"paranoid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeverity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilter_Check_Standard(t *testing.T) {
	f := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  Verdict
	}{
		{"arabic subscribe prompt", "اشتركوا في القناة", BoilerplatePhrase},
		{"boilerplate inside longer text", "We ended the lecture. Thank you for watching, see you soon", BoilerplatePhrase},
		{"translator credit", "ترجمة نانسي قنقر", BoilerplatePhrase},
		{"you're welcome", "You're welcome", ShortHallucination},
		{"arabic afwan", "عفواً", ShortHallucination},
		{"repeated chars", "JJJJJJJJJJJJ", RepeatedCharacterArtifact},
		{"basmala", "بسم الله الرحمن الرحيم", Clean},
		{"english translation", "In the name of Allah, the Most Gracious, the Most Merciful", Clean},
		{"loop not checked at standard", strings.Repeat("الله ", 12), Clean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Check(tt.input); got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilter_Check_Priority(t *testing.T) {
	f := New(DefaultConfig())

	// Both an artifact and a short hallucination; the artifact check runs first.
	input := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa welcome"
	if got := f.Check(input); got != RepeatedCharacterArtifact {
		t.Errorf("Check() = %v, want %v", got, RepeatedCharacterArtifact)
	}

	input = "thank you for watching, you're welcome"
	if got := f.Check(input); got != BoilerplatePhrase {
		t.Errorf("Check() = %v, want %v", got, BoilerplatePhrase)
	}
}

func TestFilter_Check_Lenient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Severity = SeverityLenient
	f := New(cfg)

	if got := f.Check("You're welcome"); got != Clean {
		t.Errorf("lenient Check(short hallucination) = %v, want Clean", got)
	}
	if got := f.Check("Thanks for watching"); got != BoilerplatePhrase {
		t.Errorf("lenient Check(boilerplate) = %v, want BoilerplatePhrase", got)
	}
}

func TestFilter_Check_Strict(t *testing.T) {
	cfg := Config{
		Severity: SeverityStrict,
		Lists: Lists{
			BoilerplatePhrases: []string{"شكرا على المشاهدة"},
		},
	}
	f := New(cfg)

	if got := f.Check("شكراً على المشاهدة"); got != BoilerplatePhrase {
		t.Errorf("strict Check(diacritics) = %v, want BoilerplatePhrase", got)
	}
	if got := f.Check(strings.Repeat("سبحان الله ", 6)); got != RepetitionLoop {
		t.Errorf("strict Check(loop) = %v, want RepetitionLoop", got)
	}

	cfg.Severity = SeverityStandard
	if got := New(cfg).Check("شكراً على المشاهدة"); got != Clean {
		t.Errorf("standard Check(diacritics) = %v, want Clean", got)
	}
}

func TestFilter_EmptyListsDisableCategory(t *testing.T) {
	f := New(Config{Severity: SeverityStandard})
	if got := f.Check("you're welcome"); got != Clean {
		t.Errorf("Check() with empty lists = %v, want Clean", got)
	}
}

func TestFilter_StripKnown(t *testing.T) {
	f := New(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"leading credit", "Thanks for watching بسم الله", "بسم الله"},
		{"case insensitive", "nancy quankar hello", "hello"},
		{"every occurrence", "Amara.org one Amara.org two amara.org", "one  two"},
		{"arabic", "الحمد لله اشتركوا في القناة", "الحمد لله"},
		{"only hallucination", "  Subscribe to the channel  ", ""},
		{"clean", "الحمد لله رب العالمين", "الحمد لله رب العالمين"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.StripKnown(tt.input); got != tt.want {
				t.Errorf("StripKnown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilter_CleanTranscript(t *testing.T) {
	f := New(DefaultConfig())

	got, v := f.CleanTranscript("الحمد لله رب العالمين Thanks for watching")
	if got != "الحمد لله رب العالمين" || v != Clean {
		t.Errorf("CleanTranscript() = %q, %v", got, v)
	}

	got, v = f.CleanTranscript(strings.Repeat("سبحان الله ", 6))
	if got != "" || v != RepetitionLoop {
		t.Errorf("CleanTranscript(loop) = %q, %v, want empty RepetitionLoop", got, v)
	}
}

func TestFilter_CleanTranscript_StripBeforeLoopCheck(t *testing.T) {
	f := New(DefaultConfig())

	// Eleven identical words plus six distinct hallucinated words: not a loop
	// until the hallucinated words are stripped.
	input := strings.Repeat("الله ", 11) + "Subscribe to the channel Nancy Quankar"
	if IsRepetitionLoop(input) {
		t.Fatal("precondition: raw input must not be a loop")
	}

	got, v := f.CleanTranscript(input)
	if got != "" || v != RepetitionLoop {
		t.Errorf("CleanTranscript() = %q, %v, want empty RepetitionLoop", got, v)
	}
}

func TestConfig_OverrideSeverity(t *testing.T) {
	cfg := Config{Severity: SeverityStrict}
	if err := cfg.OverrideSeverity(""); err != nil || cfg.Severity != SeverityStrict {
		t.Errorf("empty override changed severity to %q (err %v)", cfg.Severity, err)
	}
	if err := cfg.OverrideSeverity("lenient"); err != nil || cfg.Severity != SeverityLenient {
		t.Errorf("override = %q (err %v), want lenient", cfg.Severity, err)
	}
	if err := cfg.OverrideSeverity("paranoid"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if cfg.Severity != SeverityLenient {
		t.Errorf("failed override changed severity to %q", cfg.Severity)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters.yaml")
	content := `severity: strict
boilerplatePhrases:
  - "custom credit line"
  - "  "
shortHallucinations: []
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Severity != SeverityStrict {
		t.Errorf("Severity = %q, want strict", cfg.Severity)
	}
	if len(cfg.BoilerplatePhrases) != 1 || cfg.BoilerplatePhrases[0] != "custom credit line" {
		t.Errorf("BoilerplatePhrases = %v", cfg.BoilerplatePhrases)
	}
	if len(cfg.ShortHallucinations) != 0 {
		t.Errorf("ShortHallucinations = %v, want empty", cfg.ShortHallucinations)
	}
	if len(cfg.KnownHallucinations) != len(DefaultLists().KnownHallucinations) {
		t.Errorf("KnownHallucinations should keep defaults, got %d entries", len(cfg.KnownHallucinations))
	}

	f := New(cfg)
	if got := f.Check("this has a Custom Credit Line in it"); got != BoilerplatePhrase {
		t.Errorf("Check() = %v, want BoilerplatePhrase", got)
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.Severity != SeverityStandard {
		t.Errorf("Severity = %q, want standard", cfg.Severity)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("severity: paranoid\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestVerdict_String(t *testing.T) {
	if Clean.String() != "clean" || RepetitionLoop.String() != "repetition_loop" {
		t.Error("unexpected verdict names")
	}
	if Clean.Suppressed() || !ShortHallucination.Suppressed() {
		t.Error("unexpected Suppressed() result")
	}
}
