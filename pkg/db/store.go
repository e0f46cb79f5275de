package db

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/poem"
	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateOrGetWord returns the id of the (word, relation, position) row,
// inserting it if needed. On conflict the transcription is refreshed and the
// category bits are merged. Word-list membership is left as it was.
func CreateOrGetWord(db DBExecutor, w word.Word) (int64, error) {
	return upsertWord(db, w, false)
}

// AddWord is CreateOrGetWord for a word-list entry: the row is also marked as
// a member of the word list returned by LoadWords.
func AddWord(db DBExecutor, w word.Word) (int64, error) {
	return upsertWord(db, w, true)
}

func upsertWord(db DBExecutor, w word.Word, inPile bool) (int64, error) {
	if strings.TrimSpace(w.Text()) == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}
	r := rowFromWord(w)
	pile := 0
	if inPile {
		pile = 1
	}

	var id int64
	query := `INSERT INTO words (word, bopomofo, tones, word_type, length, relation, position, in_pile)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(word, relation, position)
			  DO UPDATE SET
			    bopomofo = excluded.bopomofo,
			    tones = excluded.tones,
			    word_type = words.word_type | excluded.word_type,
			    in_pile = MAX(words.in_pile, excluded.in_pile)
			  RETURNING id`

	err := db.QueryRow(query, r.Word, r.Bopomofo, r.Tones, r.WordType, r.Length, r.Relation, r.Position, pile).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word %q: %w", r.Word, err)
	}
	return id, nil
}

// AddPaddingWord stores w and registers it in the padding pool of t.
func AddPaddingWord(db DBExecutor, t sentence.Type, w word.Word) error {
	id, err := CreateOrGetWord(db, w)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT OR IGNORE INTO padding_words (sentence_type, word_id) VALUES (?, ?)`, int(t), id)
	if err != nil {
		return fmt.Errorf("add padding word %q: %w", w.Text(), err)
	}
	return nil
}

const wordColumns = `w.id, w.word, w.bopomofo, w.tones, w.word_type, w.length, w.relation, w.position`

func scanWordRow(rows *sql.Rows) (WordRow, error) {
	var r WordRow
	err := rows.Scan(&r.ID, &r.Word, &r.Bopomofo, &r.Tones, &r.WordType, &r.Length, &r.Relation, &r.Position)
	return r, err
}

// LoadWords returns the word list, in insertion order: every row stored via
// AddWord, whether or not it is also a padding word. Rows that no longer
// validate are logged and skipped.
func LoadWords(db DBExecutor, logger *zap.Logger) ([]word.Word, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rows, err := db.Query(`SELECT ` + wordColumns + ` FROM words w
		WHERE w.in_pile = 1
		ORDER BY w.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []word.Word
	for rows.Next() {
		r, err := scanWordRow(rows)
		if err != nil {
			return nil, err
		}
		w, err := r.ToWord()
		if err != nil {
			logger.Warn("skipping stored word", zap.Int64("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadPadding returns the padding pools keyed by sentence type.
func LoadPadding(db DBExecutor, logger *zap.Logger) (map[sentence.Type][]word.Word, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rows, err := db.Query(`SELECT p.sentence_type, ` + wordColumns + ` FROM padding_words p
		JOIN words w ON w.id = p.word_id
		ORDER BY p.sentence_type, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[sentence.Type][]word.Word)
	for rows.Next() {
		var t int
		var r WordRow
		if err := rows.Scan(&t, &r.ID, &r.Word, &r.Bopomofo, &r.Tones, &r.WordType, &r.Length, &r.Relation, &r.Position); err != nil {
			return nil, err
		}
		w, err := r.ToWord()
		if err != nil {
			logger.Warn("skipping stored padding word", zap.Int64("id", r.ID), zap.Error(err))
			continue
		}
		out[sentence.Type(t)] = append(out[sentence.Type(t)], w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountWords returns the number of stored words, padding words included.
func CountWords(db DBExecutor) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SavePoem stores a scored poem under runID and returns its id. Saving the
// same text twice keeps the existing row and overwrites its run and scores.
func SavePoem(db DBExecutor, p *poem.Poem, runID string) (int64, error) {
	lines := make([]string, 0, p.Row())
	for _, s := range p.Lines() {
		lines = append(lines, s.Text())
	}
	text := strings.Join(lines, "\n")
	s := p.Scores()

	var id int64
	err := db.QueryRow(`INSERT INTO poems (run_id, row_count, col_count, text, rhyme, tone, antithesis, diversity, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(text) DO UPDATE SET
		  run_id = excluded.run_id,
		  rhyme = excluded.rhyme,
		  tone = excluded.tone,
		  antithesis = excluded.antithesis,
		  diversity = excluded.diversity,
		  total = excluded.total
		RETURNING id`,
		runID, p.Row(), p.Col(), text, s.Rhyme, s.Tone, s.Antithesis, s.Diversity, s.Total()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save poem: %w", err)
	}
	return id, nil
}

// TopPoems returns up to limit stored poems, best first.
func TopPoems(db DBExecutor, limit int) ([]PoemRow, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	rows, err := db.Query(`SELECT id, run_id, row_count, col_count, text, rhyme, tone, antithesis, diversity, total, created_at
		FROM poems ORDER BY total DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoemRow
	for rows.Next() {
		var r PoemRow
		if err := rows.Scan(&r.ID, &r.RunID, &r.Rows, &r.Cols, &r.Text, &r.Rhyme, &r.Tone, &r.Antithesis, &r.Diversity, &r.Total, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
