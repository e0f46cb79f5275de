// Package phonetic transcribes Chinese text into bopomofo, one syllable per
// character, either from a static table or from an online dictionary.
package phonetic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/lushi/pkg/word"
)

// ErrNotFound is returned when no transcription is known for a character.
var ErrNotFound = errors.New("no transcription found")

// Lookup transcribes text. Implementations return exactly one syllable per
// character of text.
type Lookup interface {
	Lookup(ctx context.Context, text string) ([]string, error)
}

// Table maps single characters to their bopomofo syllable.
type Table map[rune]string

// ParseTable builds a Table from entries such as "春天": "ㄔㄨㄣ ㄊㄧㄢ".
func ParseTable(entries map[string]string) (Table, error) {
	t := make(Table)
	for text, transcription := range entries {
		runes := []rune(strings.TrimSpace(text))
		syllables := word.SplitSyllables(transcription)
		if len(runes) != len(syllables) {
			return nil, fmt.Errorf("table entry %q: %d characters but %d syllables", text, len(runes), len(syllables))
		}
		for i, r := range runes {
			t[r] = syllables[i]
		}
	}
	return t, nil
}

// Lookup implements Lookup character by character.
func (t Table) Lookup(ctx context.Context, text string) ([]string, error) {
	var out []string
	for _, r := range strings.TrimSpace(text) {
		s, ok := t[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, string(r))
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty text", ErrNotFound)
	}
	return out, nil
}

// Chain tries each lookup in order and returns the first success.
type Chain []Lookup

func (c Chain) Lookup(ctx context.Context, text string) ([]string, error) {
	errs := make([]error, 0, len(c))
	for _, l := range c {
		out, err := l.Lookup(ctx, text)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no lookup configured", ErrNotFound)
	}
	return nil, errors.Join(errs...)
}

// ExtractSyllables scans free text for bopomofo syllables. A neutral tone
// mark may precede a syllable; other tone marks follow it.
func ExtractSyllables(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '˙':
			flush()
			cur.WriteRune(r)
		case word.IsBopomofo(r):
			cur.WriteRune(r)
		case r == 'ˊ' || r == 'ˇ' || r == 'ˋ' || r == 'ˉ':
			if cur.Len() > 0 {
				cur.WriteRune(r)
			}
			flush()
		default:
			flush()
		}
	}
	flush()

	// Drop a dangling neutral mark with no letters after it.
	filtered := out[:0]
	for _, s := range out {
		if s != "˙" {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
