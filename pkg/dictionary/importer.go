package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/lexicon"
	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// Batch is the decoded content of a document.
type Batch struct {
	Words   []word.Word
	Padding map[sentence.Type][]word.Word
	// Skipped counts malformed records that were dropped.
	Skipped int
}

// ApplyTo inserts the words into repo and installs the padding pools, if any.
func (b *Batch) ApplyTo(repo *lexicon.Repository) {
	repo.AddWords(b.Words)
	if len(b.Padding) > 0 {
		repo.SetPaddingWords(b.Padding)
	}
}

// Load reads a lexicon document from path.
func Load(path string, logger *zap.Logger) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, logger)
}

// Decode parses a lexicon document. A document that is not valid JSON is an
// error; individual malformed records are logged and skipped.
func Decode(r io.Reader, logger *zap.Logger) (*Batch, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon document: %w", err)
	}

	b := &Batch{Padding: make(map[sentence.Type][]word.Word)}
	b.Words = decodeRecords(raw.WordPile, "wordPile", b, logger)
	for key, msgs := range raw.PaddingWords {
		t, err := strconv.Atoi(key)
		if err != nil {
			logger.Warn("skipping padding pool with non-numeric sentence type", zap.String("type", key))
			b.Skipped += len(msgs)
			continue
		}
		b.Padding[sentence.Type(t)] = decodeRecords(msgs, "paddingWords."+key, b, logger)
	}

	if raw.TotalWord != 0 && raw.TotalWord != len(raw.WordPile) {
		logger.Warn("totalWord does not match wordPile",
			zap.Int("totalWord", raw.TotalWord), zap.Int("records", len(raw.WordPile)))
	}
	return b, nil
}

func decodeRecords(msgs []json.RawMessage, section string, b *Batch, logger *zap.Logger) []word.Word {
	words := make([]word.Word, 0, len(msgs))
	for i, msg := range msgs {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			logger.Warn("skipping malformed record", zap.String("section", section), zap.Int("index", i), zap.Error(err))
			b.Skipped++
			continue
		}
		w, err := rec.ToWord()
		if err != nil {
			logger.Warn("skipping invalid record", zap.String("section", section), zap.Int("index", i), zap.Error(err))
			b.Skipped++
			continue
		}
		words = append(words, w)
	}
	return words
}

// Export captures the repository inventory and padding pools.
func Export(repo *lexicon.Repository) Document {
	return NewDocument(repo.Inventory(), repo.PaddingWords())
}

// NewDocument serializes words and padding pools. Pools are written in
// sentence type order.
func NewDocument(words []word.Word, padding map[sentence.Type][]word.Word) Document {
	doc := Document{
		TotalWord: len(words),
		WordPile:  make([]Record, len(words)),
	}
	for i, w := range words {
		doc.WordPile[i] = FromWord(w)
	}

	if len(padding) > 0 {
		doc.PaddingWords = make(map[string][]Record, len(padding))
		types := make([]sentence.Type, 0, len(padding))
		for t := range padding {
			types = append(types, t)
		}
		slices.Sort(types)
		for _, t := range types {
			recs := make([]Record, len(padding[t]))
			for i, w := range padding[t] {
				recs[i] = FromWord(w)
			}
			doc.PaddingWords[strconv.Itoa(int(t))] = recs
		}
	}
	return doc
}

// Encode writes the repository as an indented JSON document.
func Encode(w io.Writer, repo *lexicon.Repository) error {
	return WriteDocument(w, Export(repo))
}

// WriteDocument writes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Save writes the repository document to path.
func Save(path string, repo *lexicon.Repository) error {
	return SaveDocument(path, Export(repo))
}

// SaveDocument writes doc to path, creating parent directories.
func SaveDocument(path string, doc Document) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDocument(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("encode lexicon: %w", err)
	}
	return f.Close()
}
