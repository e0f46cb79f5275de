package word

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesLengths(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		bopomofo []string
		tones    []Tone
		rel      Relation
		wantErr  bool
	}{
		{"single", "山", []string{"ㄕㄢ"}, []Tone{Flat}, RelationScene, false},
		{"pair", "明月", []string{"ㄇㄧㄥˊ", "ㄩㄝˋ"}, []Tone{Flat, Oblique}, RelationScene, false},
		{"empty text", "", nil, nil, RelationScene, true},
		{"missing syllable", "明月", []string{"ㄇㄧㄥˊ"}, []Tone{Flat, Oblique}, RelationScene, true},
		{"missing tone", "明月", []string{"ㄇㄧㄥˊ", "ㄩㄝˋ"}, []Tone{Flat}, RelationScene, true},
		{"bad tone", "山", []string{"ㄕㄢ"}, []Tone{Tone(7)}, RelationScene, true},
		{"bad relation", "山", []string{"ㄕㄢ"}, []Tone{Flat}, Relation(42), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.text, tt.bopomofo, tt.tones, Noun, tt.rel, Start)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.tones), w.Len())
			assert.Equal(t, tt.text, w.Text())
		})
	}
}

func TestWordDoesNotAliasInput(t *testing.T) {
	syllables := []string{"ㄇㄧㄥˊ", "ㄩㄝˋ"}
	tones := []Tone{Flat, Oblique}
	w := MustNew("明月", syllables, tones, Noun|Nature, RelationScene, End)

	syllables[1] = "ㄏㄨㄚ"
	tones[1] = Flat

	assert.Equal(t, Oblique, w.ToneAt(1))
	assert.Equal(t, "ㄩㄝˋ", w.Bopomofo()[1])

	got := w.Tones()
	got[0] = Oblique
	assert.Equal(t, Flat, w.ToneAt(0))
}

func TestRhymeAndTone(t *testing.T) {
	assert.Equal(t, Rhyme('ㄢ'), RhymeOf("ㄕㄢ"))
	assert.Equal(t, Rhyme('ㄟ'), RhymeOf("ㄕㄨㄟˇ"))
	assert.Equal(t, Rhyme('ㄜ'), RhymeOf("˙ㄉㄜ"))
	assert.Equal(t, NoRhyme, RhymeOf(""))

	assert.Equal(t, Flat, ToneOf("ㄕㄢ"))
	assert.Equal(t, Flat, ToneOf("ㄇㄧㄥˊ"))
	assert.Equal(t, Oblique, ToneOf("ㄕㄨㄟˇ"))
	assert.Equal(t, Oblique, ToneOf("ㄩㄝˋ"))
	assert.Equal(t, Oblique, ToneOf("˙ㄉㄜ"))

	w, err := FromBopomofo("山水", []string{"ㄕㄢ", "ㄕㄨㄟˇ"}, Noun, RelationScene, Start)
	require.NoError(t, err)
	assert.Equal(t, []Tone{Flat, Oblique}, w.Tones())
	assert.Equal(t, Rhyme('ㄟ'), w.Rhyme())
	assert.Equal(t, '水', w.CharAt(1))
}

func TestTypeBitmask(t *testing.T) {
	a := MustNew("山", []string{"ㄕㄢ"}, []Tone{Flat}, Noun|Nature, RelationScene, Start)
	b := MustNew("水", []string{"ㄕㄨㄟˇ"}, []Tone{Oblique}, Nature, RelationScene, Start)
	c := MustNew("飛", []string{"ㄈㄟ"}, []Tone{Flat}, Verb, RelationAction, Start)

	assert.True(t, a.Matches(b))
	assert.True(t, b.Matches(a))
	assert.False(t, a.Matches(c))

	assert.Equal(t, "noun|nature", (Noun | Nature).String())
	assert.Equal(t, Noun|Nature, ParseType("noun|nature"))
	assert.True(t, (Noun | Verb).Has(Verb))
	assert.False(t, Noun.Has(Noun|Verb))
	assert.Equal(t, "none", Type(0).String())
}

func TestRelationString(t *testing.T) {
	assert.Equal(t, "topic", RelationTopic.String())
	assert.Equal(t, "filler", RelationFiller.String())
	assert.Equal(t, "relation(9)", Relation(9).String())
	assert.False(t, Relation(-1).Valid())
}
