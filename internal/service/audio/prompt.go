package audio

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// FallbackPrompt is used when no verses file is available.
	FallbackPrompt = "Quran recitation, Islamic sermon, Arabic speech, clear audio, no repetition."

	promptPrefix       = "Quranic recitation in Arabic. Context: "
	maxContextVerses   = 500
	promptExcerptRunes = 200
)

// versesFile mirrors the public Quran dataset layout: data.surahs[].ayahs[].text.
type versesFile struct {
	Data struct {
		Surahs []struct {
			Ayahs []struct {
				Text string `json:"text"`
			} `json:"ayahs"`
		} `json:"surahs"`
	} `json:"data"`
}

// LoadPrompt builds the recognizer prompt from a verses JSON file. An empty
// path yields FallbackPrompt.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return FallbackPrompt, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FallbackPrompt, fmt.Errorf("read prompt file: %w", err)
	}

	var vf versesFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return FallbackPrompt, fmt.Errorf("parse prompt file %s: %w", path, err)
	}

	var verses []string
	for _, s := range vf.Data.Surahs {
		for _, a := range s.Ayahs {
			verses = append(verses, a.Text)
		}
	}
	return BuildPrompt(verses), nil
}

// BuildPrompt joins the leading verses into a short context excerpt.
func BuildPrompt(verses []string) string {
	if len(verses) > maxContextVerses {
		verses = verses[:maxContextVerses]
	}
	context := strings.TrimSpace(strings.Join(verses, " "))
	if context == "" {
		return FallbackPrompt
	}

	excerpt := []rune(context)
	if len(excerpt) > promptExcerptRunes {
		excerpt = excerpt[:promptExcerptRunes]
	}
	return promptPrefix + string(excerpt)
}
