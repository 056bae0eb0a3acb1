package filter

import (
	"strings"
	"testing"
)

func TestIsRepeatedCharacterArtifact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"single char run", "JJJJJJJJJJ", true},
		{"pattern length 2", "ABABABABABAB", true},
		{"pattern length 3", "ABCABCABCABCABC", true},
		{"no pattern", "ABCDEFGHIJ", false},
		{"too short", "JJJJJJJJJ", false},
		{"whitespace ignored for length", "J J J J J", false},
		{"whitespace stripped before counting", "J J J J J J J J J J", true},
		{"dominant char above threshold", "aaaaaaaabc", true},
		{"dominant char at threshold", "baaaaaaacd", false},
		{"arabic repeated", "ههههههههههه", true},
		{"arabic sentence", "بسم الله الرحمن الرحيم", false},
		{"pattern not at start", "xyABABABABAB", false},
		{"four repeats only", "ABABABABXYZQ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRepeatedCharacterArtifact(tt.input); got != tt.want {
				t.Errorf("IsRepeatedCharacterArtifact(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsRepeatedCharacterArtifact_DominantShare(t *testing.T) {
	// 71 of 100 runes are the same character.
	text := strings.Repeat("x", 71) + strings.Repeat("abcdefghijklmnopqrstuvwxyz", 2)[:29]
	if !IsRepeatedCharacterArtifact(text) {
		t.Errorf("expected artifact for text with 71%% share")
	}
}

func TestIsRepetitionLoop(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"ten identical words", strings.Repeat("الله ", 10), false},
		{"eleven identical words", strings.Repeat("الله ", 11), true},
		{"two word vocabulary", strings.Repeat("thank you ", 8), true},
		{"varied sentence", "in the name of god the most gracious the most merciful praise be", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRepetitionLoop(tt.input); got != tt.want {
				t.Errorf("IsRepetitionLoop(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	phrases := []string{"thank you for watching", "اشتركوا في القناة"}

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"latin exact", "thank you for watching", true},
		{"latin mixed case", "Thank You For Watching!", true},
		{"latin substring", "and so on. THANK YOU FOR WATCHING and goodbye", true},
		{"arabic exact", "اشتركوا في القناة", true},
		{"arabic substring", "السلام عليكم اشتركوا في القناة الآن", true},
		{"clean", "بسم الله الرحمن الرحيم", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := ContainsPhrase(tt.input, phrases); got != tt.want {
				t.Errorf("ContainsPhrase(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsPhrase_EmptyPhraseIgnored(t *testing.T) {
	if _, ok := ContainsPhrase("anything", []string{""}); ok {
		t.Error("empty phrase must not match")
	}
}

func TestContainsPhraseFolded(t *testing.T) {
	phrases := []string{"شكرا على المشاهدة"}
	if _, ok := ContainsPhrase("شكراً على المشاهدة", phrases); ok {
		t.Fatal("plain containment should not ignore tanween")
	}
	if _, ok := ContainsPhraseFolded("شكراً على المشاهدة", phrases); !ok {
		t.Error("folded containment should ignore tanween")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("بسم الله الرحمن", 3); got != "بسم..." {
		t.Errorf("truncate runes = %q", got)
	}
}
