package poem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

func mk(text string, typ word.Type, syllables ...string) word.Word {
	w, err := word.FromBopomofo(text, syllables, typ, word.RelationScene, word.Start)
	if err != nil {
		panic(err)
	}
	return w
}

// line builds a line of single-character words. tones is a string of F/O
// and every character is given the same rhyme final.
func line(text, tones string, rhyme string, typ word.Type) sentence.Sentence {
	runes := []rune(text)
	words := make([]word.Word, len(runes))
	for i, r := range runes {
		syl := rhyme
		if tones[i] == 'O' {
			syl += "ˋ"
		}
		words[i] = mk(string(r), typ, syl)
	}
	return sentence.New(0, words...)
}

// 登鸛雀樓
func classic() []sentence.Sentence {
	return []sentence.Sentence{
		sentence.New(0,
			mk("白日", word.Noun|word.Nature, "ㄅㄞˊ", "ㄖˋ"),
			mk("依", word.Verb, "ㄧ"),
			mk("山盡", word.Noun|word.Nature, "ㄕㄢ", "ㄐㄧㄣˋ")),
		sentence.New(0,
			mk("黃河", word.Noun|word.Place, "ㄏㄨㄤˊ", "ㄏㄜˊ"),
			mk("入", word.Verb, "ㄖㄨˋ"),
			mk("海流", word.Noun|word.Nature, "ㄏㄞˇ", "ㄌㄧㄡˊ")),
		sentence.New(1,
			mk("欲窮", word.Verb, "ㄩˋ", "ㄑㄩㄥˊ"),
			mk("千里目", word.Numeral|word.Noun, "ㄑㄧㄢ", "ㄌㄧˇ", "ㄇㄨˋ")),
		sentence.New(1,
			mk("更上", word.Verb|word.Adverb, "ㄍㄥˋ", "ㄕㄤˋ"),
			mk("一層樓", word.Numeral|word.Noun, "ㄧ", "ㄘㄥˊ", "ㄌㄡˊ")),
	}
}

func mustPoem(t *testing.T, row, col int, lines []sentence.Sentence) *Poem {
	t.Helper()
	p, err := New(row, col, lines)
	require.NoError(t, err)
	return p
}

func TestClassicPoemScores(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	s := p.Scores()

	assert.Equal(t, 200, s.Rhyme, "流 and 樓 share the final ㄡ")
	assert.Equal(t, 100, s.Diversity, "all twenty characters are distinct")
	assert.Equal(t, 100, s.Antithesis, "both couplets align category for category")
	assert.Equal(t, 200, s.Tone, "oblique-start quatrain with regular endings")
	assert.Equal(t, s.Total(), p.Fitness())

	assert.Equal(t, '白', p.CharAt(1))
	assert.Equal(t, '盡', p.CharAt(5))
	assert.Equal(t, '黃', p.CharAt(6))
	assert.Equal(t, '樓', p.CharAt(20))
	assert.Equal(t, '里', p.CharAt(14))
	assert.Equal(t, word.Oblique, p.ToneAt(2))
	assert.Equal(t, word.Flat, p.ToneAt(10))
}

func TestSubScoresStayInRange(t *testing.T) {
	polys := [][]sentence.Sentence{
		classic(),
		{
			line("一二三四五", "OOOOO", "ㄨ", word.Noun),
			line("六七八九十", "FFFFF", "ㄚ", word.Verb),
			line("甲乙丙丁戊", "OFOFO", "ㄨ", word.Noun),
			line("己庚辛壬癸", "FOFOF", "ㄚ", word.Verb),
		},
	}
	for _, lines := range polys {
		p := mustPoem(t, 4, 5, lines)
		s := p.Scores()
		assert.GreaterOrEqual(t, s.Rhyme, 0)
		assert.LessOrEqual(t, s.Rhyme, MaxRhymeScore)
		assert.GreaterOrEqual(t, s.Tone, 0)
		assert.LessOrEqual(t, s.Tone, MaxToneScore)
		assert.GreaterOrEqual(t, s.Antithesis, 0)
		assert.LessOrEqual(t, s.Antithesis, MaxAntithesisScore)
		assert.GreaterOrEqual(t, s.Diversity, 0)
		assert.LessOrEqual(t, s.Diversity, MaxDiversityScore)
		assert.Equal(t, s.Rhyme+s.Tone+s.Antithesis+s.Diversity, p.Fitness())
	}
}

func TestRhymeScore(t *testing.T) {
	p := mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFFF", "ㄧ", word.Noun),
		line("己庚辛壬癸", "FFFFF", "ㄢ", word.Noun),
		line("子丑寅卯辰", "FFFFF", "ㄨ", word.Noun),
		line("巳午未申酉", "FFFFF", "ㄢ", word.Noun),
	})
	assert.Equal(t, 2*200/2, p.Scores().Rhyme)

	p = mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFFF", "ㄢ", word.Noun),
		line("己庚辛壬癸", "FFFFF", "ㄢ", word.Noun),
		line("子丑寅卯辰", "FFFFF", "ㄢ", word.Noun),
		line("巳午未申酉", "FFFFF", "ㄠ", word.Noun),
	})
	assert.Equal(t, 100, p.Scores().Rhyme, "only the odd lines share the final with line 2")

	lines := make([]sentence.Sentence, 8)
	for i := range lines {
		rhyme := "ㄢ"
		if i == 7 {
			rhyme = "ㄠ"
		}
		lines[i] = line("甲乙丙丁戊", "FFFFF", rhyme, word.Noun)
	}
	p = mustPoem(t, 8, 5, lines)
	assert.Equal(t, 3*200/4, p.Scores().Rhyme)
}

func TestToneScore(t *testing.T) {
	// Level-start quatrain matching every template column and line ending.
	p := mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFOO", "ㄧ", word.Noun),
		line("己庚辛壬癸", "FOFFF", "ㄢ", word.Noun),
		line("子丑寅卯辰", "FOFFO", "ㄨ", word.Noun),
		line("巳午未申酉", "FFFOF", "ㄢ", word.Noun),
	})
	assert.Equal(t, MaxToneScore, p.Scores().Tone)

	// All oblique: oblique-start template, one column per line plus line 3's ending.
	p = mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "OOOOO", "ㄢ", word.Noun),
		line("己庚辛壬癸", "OOOOO", "ㄢ", word.Noun),
		line("子丑寅卯辰", "OOOOO", "ㄢ", word.Noun),
		line("巳午未申酉", "OOOOO", "ㄢ", word.Noun),
	})
	assert.Equal(t, 5*200/12, p.Scores().Tone)

	// A first line rhyming with the second must end flat.
	p = mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFOF", "ㄢ", word.Noun),
		line("己庚辛壬癸", "FOFFF", "ㄢ", word.Noun),
		line("子丑寅卯辰", "FOFFO", "ㄨ", word.Noun),
		line("巳午未申酉", "FFFOF", "ㄢ", word.Noun),
	})
	assert.Equal(t, MaxToneScore, p.Scores().Tone)
}

func TestToneScoreSevenCharacterOctave(t *testing.T) {
	// Level start: patterns 0,1,2,3,0,1,2,3 over columns 2,4,6.
	rows := []string{"FFFOFFO", "FOFFFOF", "FOFFFOO", "FFFOFFF"}
	lines := make([]sentence.Sentence, 8)
	for i := range lines {
		rhyme := "ㄢ"
		if i%2 == 0 {
			rhyme = "ㄧ"
		}
		lines[i] = line("甲乙丙丁戊己庚", rows[i%4], rhyme, word.Noun)
	}
	p := mustPoem(t, 8, 7, lines)
	assert.Equal(t, MaxToneScore, p.Scores().Tone)
}

func TestDiversityScore(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	assert.Equal(t, 100, p.Scores().Diversity)

	same := line("山山山山山", "FFFFF", "ㄢ", word.Noun)
	p = mustPoem(t, 4, 5, []sentence.Sentence{same, same, same, same})
	assert.Equal(t, 100*1/20, p.Scores().Diversity)
}

func TestAntithesisScore(t *testing.T) {
	p := mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFFF", "ㄢ", word.Noun),
		line("己庚辛壬癸", "FFFFF", "ㄢ", word.Verb),
		line("子丑寅卯辰", "FFFFF", "ㄢ", word.Noun),
		line("巳午未申酉", "FFFFF", "ㄢ", word.Verb),
	})
	assert.Equal(t, 0, p.Scores().Antithesis)

	p = mustPoem(t, 4, 5, []sentence.Sentence{
		line("甲乙丙丁戊", "FFFFF", "ㄢ", word.Noun|word.Verb),
		line("己庚辛壬癸", "FFFFF", "ㄢ", word.Verb),
		line("子丑寅卯辰", "FFFFF", "ㄢ", word.Noun),
		line("巳午未申酉", "FFFFF", "ㄢ", word.Verb),
	})
	assert.Equal(t, 5*100/10, p.Scores().Antithesis)
}

func TestAlignCouplet(t *testing.T) {
	n, v, a := word.Noun, word.Verb, word.Adjective
	tests := []struct {
		name   string
		first  []word.Word
		second []word.Word
		want   int
	}{
		{
			name:   "same segmentation, last pair differs",
			first:  []word.Word{mk("甲乙", n, "ㄚ", "ㄚ"), mk("丙", v, "ㄚ"), mk("丁戊", n, "ㄚ", "ㄚ")},
			second: []word.Word{mk("己庚", n, "ㄚ", "ㄚ"), mk("辛", v, "ㄚ"), mk("壬癸", a, "ㄚ", "ㄚ")},
			want:   3,
		},
		{
			name:   "mismatch advances the lagging side",
			first:  []word.Word{mk("甲", v, "ㄚ"), mk("乙丙", n, "ㄚ", "ㄚ"), mk("丁戊", n, "ㄚ", "ㄚ")},
			second: []word.Word{mk("己庚", n, "ㄚ", "ㄚ"), mk("辛壬癸", n, "ㄚ", "ㄚ", "ㄚ")},
			want:   4,
		},
		{
			name:   "one side finishes first",
			first:  []word.Word{mk("甲乙", n, "ㄚ", "ㄚ"), mk("丙丁戊", n, "ㄚ", "ㄚ", "ㄚ")},
			second: []word.Word{mk("己", n, "ㄚ"), mk("庚", n, "ㄚ"), mk("辛壬癸", n, "ㄚ", "ㄚ", "ㄚ")},
			want:   5,
		},
		{
			name:   "nothing matches",
			first:  []word.Word{mk("甲乙", n, "ㄚ", "ㄚ"), mk("丙丁戊", n, "ㄚ", "ㄚ", "ㄚ")},
			second: []word.Word{mk("己庚", v, "ㄚ", "ㄚ"), mk("辛壬癸", v, "ㄚ", "ㄚ", "ㄚ")},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alignCouplet(tt.first, tt.second, 5)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, alignCouplet(tt.second, tt.first, 5), "alignment must not depend on line order")
			assert.LessOrEqual(t, got, 5)
		})
	}
}

func TestDeepCopyOnConstruction(t *testing.T) {
	template := classic()
	p := mustPoem(t, 4, 5, template)
	before := p.Fitness()

	template[0].Words[0] = mk("白白", word.Verb, "ㄅㄞˊ", "ㄅㄞˊ")
	p.stale = true
	assert.Equal(t, before, p.Fitness(), "editing the template must not reach the poem")
	assert.Equal(t, '白', p.CharAt(1))
	assert.Equal(t, '日', p.CharAt(2))
}

func TestCloneIsIndependent(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	before := p.Fitness()

	c := p.Clone()
	lines := c.Sentences()
	lines[1].Words[2] = mk("海海", word.Verb, "ㄏㄞˇ", "ㄏㄞˇ")
	lines[3].Words[1] = mk("一一一", word.Verb, "ㄧ", "ㄧ", "ㄧ")

	assert.NotEqual(t, before, c.Fitness())
	assert.Equal(t, before, p.Fitness())
	assert.Equal(t, '流', p.CharAt(10))
	assert.Equal(t, '海', c.CharAt(10))
}

func TestFitnessIsCached(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	assert.Equal(t, 0, p.evaluations)

	first := p.Fitness()
	second := p.Fitness()
	_ = p.Scores()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.evaluations)

	lines := p.Sentences()
	assert.Equal(t, 1, p.evaluations, "reading for mutation only marks the score stale")
	lines[0].Words[1] = mk("臨", word.Verb, "ㄌㄧㄣˊ")
	_ = p.Fitness()
	assert.Equal(t, 2, p.evaluations)
	_ = p.Fitness()
	assert.Equal(t, 2, p.evaluations)
}

func TestLinesKeepsScoreCached(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	before := p.Fitness()
	require.Equal(t, 1, p.evaluations)

	lines := p.Lines()
	require.Len(t, lines, 4)
	lines[0].Words[1] = mk("臨", word.Verb, "ㄌㄧㄣˊ")

	assert.Equal(t, before, p.Fitness())
	assert.Equal(t, 1, p.evaluations, "reading copies must not invalidate the score")
	assert.Equal(t, '依', p.CharAt(3))
}

func TestGridIndexOutOfRangePanics(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	for _, idx := range []int{0, -1, 21} {
		assert.Panics(t, func() { p.CharAt(idx) }, "CharAt(%d)", idx)
		assert.Panics(t, func() { p.ToneAt(idx) }, "ToneAt(%d)", idx)
	}
	assert.NotPanics(t, func() { p.CharAt(20) })
}

func TestNewRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
		lines    []sentence.Sentence
	}{
		{"odd rows", 3, 5, classic()},
		{"six columns", 4, 6, classic()},
		{"too few lines", 4, 5, classic()[:3]},
		{"too many lines", 4, 5, append(classic(), classic()[0])},
		{"short line", 4, 5, append(classic()[:3], line("甲乙丙丁", "FFFF", "ㄢ", word.Noun))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.row, tt.col, tt.lines)
			assert.True(t, errors.Is(err, ErrInvalidShape), "got %v", err)
		})
	}
}

type stubMaker struct {
	lines []sentence.Sentence
	next  int
	err   error
}

func (m *stubMaker) MakeRandomSentence() (sentence.Sentence, error) {
	if m.err != nil {
		return sentence.Sentence{}, m.err
	}
	s := m.lines[m.next%len(m.lines)]
	m.next++
	return s, nil
}

func TestRandom(t *testing.T) {
	m := &stubMaker{lines: classic()}
	p := Random(4, 5, m)
	assert.Equal(t, 4, m.next)
	assert.Equal(t, mustPoem(t, 4, 5, classic()).Fitness(), p.Fitness())

	failing := &stubMaker{err: errors.New("no words")}
	assert.Panics(t, func() { Random(4, 5, failing) })
}

func TestSortDescending(t *testing.T) {
	good := mustPoem(t, 4, 5, classic())
	same := line("山山山山山", "OOOOO", "ㄢ", word.Noun)
	bad := mustPoem(t, 4, 5, []sentence.Sentence{same, same, same, same})
	mid := good.Clone()
	mid.Sentences()[3].Words[1] = mk("一層舟", word.Verb, "ㄧ", "ㄘㄥˊ", "ㄓㄡ")

	poems := []*Poem{bad, good, mid}
	Sort(poems)
	assert.Same(t, good, poems[0])
	assert.Same(t, bad, poems[2])
	assert.Equal(t, 0, Compare(good, good.Clone()))
	assert.Equal(t, -1, Compare(good, bad))
	assert.Equal(t, 1, Compare(bad, good))
}

func TestReport(t *testing.T) {
	p := mustPoem(t, 4, 5, classic())
	assert.Contains(t, p.Report(), "押韻: 200/200")
	assert.Contains(t, p.String(), "白日 依 山盡\n")
}
