package poem

import (
	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/word"
)

// standardTone holds the expected tone at columns 2, 4, 6 for the four rows
// of a stanza. Row patterns rotate by one each line.
var standardTone = [4][3]word.Tone{
	{word.Flat, word.Oblique, word.Flat},
	{word.Oblique, word.Flat, word.Oblique},
	{word.Oblique, word.Flat, word.Oblique},
	{word.Flat, word.Oblique, word.Flat},
}

// locate resolves a 1-based grid index to the word holding it and the
// character offset inside that word.
func (p *Poem) locate(index int) (word.Word, int) {
	if index < 1 {
		fatalf("grid index %d: indices start at 1", index)
	}
	if index > p.row*p.col {
		fatalf("grid index %d out of bounds (%d characters)", index, p.row*p.col)
	}
	index--
	atRow := index / p.col
	column := index - atRow*p.col + 1

	cumulative := 0
	for _, w := range p.lines[atRow].Words {
		n := w.Len()
		if cumulative+n >= column {
			return w, column - cumulative - 1
		}
		cumulative += n
	}
	fatalf("line %d is shorter than %d characters", atRow+1, p.col)
	return word.Word{}, 0
}

// CharAt returns the character at a 1-based index over the whole grid.
func (p *Poem) CharAt(index int) rune {
	w, off := p.locate(index)
	return w.CharAt(off)
}

// ToneAt returns the tone at a 1-based index over the whole grid.
func (p *Poem) ToneAt(index int) word.Tone {
	w, off := p.locate(index)
	return w.ToneAt(off)
}

// rhymeScore counts the most common rhyme among the even lines.
func (p *Poem) rhymeScore() int {
	counts := make(map[word.Rhyme]int)
	maxCount := 0
	most := word.NoRhyme
	for i := 1; i < p.row; i += 2 {
		r := p.lines[i].Last().Rhyme()
		counts[r]++
		if counts[r] > maxCount {
			maxCount = counts[r]
			most = r
		}
	}
	p.logger.Debug("rhyme",
		zap.Stringer("most", most),
		zap.Int("count", maxCount),
		zap.Int("max", p.maxRhymeMatch))
	return maxCount * MaxRhymeScore / p.maxRhymeMatch
}

// toneScore checks the even columns against the rotating template, then the
// tones of the line endings.
func (p *Poem) toneScore() int {
	matchTone := 0
	matchRhymeTone := 0

	pattern := 0 // 平起
	if p.ToneAt(2) != word.Flat {
		pattern = 2 // 仄起
	}
	for i := 0; i < p.row; i++ {
		for j, k := 2, 0; j <= p.col; j, k = j+2, k+1 {
			if p.ToneAt(i*p.col+j) == standardTone[pattern][k] {
				matchTone++
			}
		}
		pattern = (pattern + 1) % 4
	}

	// A first line that rhymes with the second ends flat; otherwise oblique.
	if p.lines[0].Last().Rhyme() == p.lines[1].Last().Rhyme() {
		if p.ToneAt(p.col) == word.Flat {
			matchRhymeTone++
		}
	} else if p.ToneAt(p.col) == word.Oblique {
		matchRhymeTone++
	}
	if p.ToneAt(2*p.col) == word.Flat {
		matchRhymeTone++
	}
	for i := 4; i <= p.row; i += 2 {
		if p.ToneAt((i-1)*p.col) == word.Oblique {
			matchRhymeTone++
		}
		if p.ToneAt(i*p.col) == word.Flat {
			matchRhymeTone++
		}
	}

	p.logger.Debug("tone",
		zap.Int("pattern", matchTone),
		zap.Int("endings", matchRhymeTone),
		zap.Int("max", p.maxToneMatch))
	return (matchTone + matchRhymeTone) * MaxToneScore / p.maxToneMatch
}

// antithesisScore aligns each couplet word by word and counts characters
// covered by category-matching pairs.
func (p *Poem) antithesisScore() int {
	total := 0
	for i := 0; i+1 < p.row; i += 2 {
		n := alignCouplet(p.lines[i].Words, p.lines[i+1].Words, p.col)
		p.logger.Debug("antithesis",
			zap.String("first", p.lines[i].String()),
			zap.String("second", p.lines[i+1].String()),
			zap.Int("matched", n))
		total += n
	}
	return total * MaxAntithesisScore / p.maxAntithesisMatch
}

// alignCouplet walks two lines with independent cursors. A category match
// consumes both current words and scores the shorter length; a mismatch
// advances the side that lags behind (both on a tie). A side that has
// consumed col characters stays on its final word and is not consumed again.
func alignCouplet(first, second []word.Word, col int) int {
	next := func(i, n int) int {
		if i+1 < n {
			return i + 1
		}
		return i
	}

	matched := 0
	i1, c1 := 0, 0
	i2, c2 := 0, 0
	for c1 < col || c2 < col {
		w1, w2 := first[i1], second[i2]
		len1, len2 := w1.Len(), w2.Len()
		done1, done2 := c1 >= col, c2 >= col

		switch {
		case w1.Matches(w2):
			matched += min(len1, len2)
			if !done1 {
				c1 += len1
				i1 = next(i1, len(first))
			}
			if !done2 {
				c2 += len2
				i2 = next(i2, len(second))
			}
		case done1:
			c2 += len2
			i2 = next(i2, len(second))
		case done2:
			c1 += len1
			i1 = next(i1, len(first))
		case c1+len1 > c2+len2:
			c2 += len2
			i2 = next(i2, len(second))
		case c2+len2 > c1+len1:
			c1 += len1
			i1 = next(i1, len(first))
		default:
			c1 += len1
			c2 += len2
			i1 = next(i1, len(first))
			i2 = next(i2, len(second))
		}
	}
	return matched
}

// diversityScore is the share of distinct characters in the grid.
func (p *Poem) diversityScore() int {
	seen := make(map[rune]struct{}, p.row*p.col)
	for i := 1; i <= p.row*p.col; i++ {
		seen[p.CharAt(i)] = struct{}{}
	}
	p.logger.Debug("diversity", zap.Int("distinct", len(seen)), zap.Int("max", p.row*p.col))
	return MaxDiversityScore * len(seen) / (p.row * p.col)
}
