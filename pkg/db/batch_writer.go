package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// WriteFunc performs database writes inside a batch transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers writes and commits them in batches, one transaction
// per batch. A failing callback rolls back its whole batch.
type BatchWriter struct {
	mu     sync.Mutex
	buf    []WriteFunc
	size   int
	ticker *time.Ticker
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	commitCh chan []WriteFunc
	db       *sql.DB
	logger   *zap.Logger

	// OnError observes every asynchronous failure.
	OnError func(error)

	errMu    sync.Mutex
	firstErr error
	batches  int
}

// NewBatchWriter starts a writer that flushes every bufferSize writes and,
// when flushInterval is positive, on that interval. A nil db runs the
// callbacks with a nil transaction.
func NewBatchWriter(db *sql.DB, bufferSize int, flushInterval time.Duration, logger *zap.Logger) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		buf:      make([]WriteFunc, 0, bufferSize),
		size:     bufferSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []WriteFunc, 2),
		db:       db,
		logger:   logger,
	}

	bw.wg.Add(1)
	go bw.committer()

	if flushInterval > 0 {
		bw.ticker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.loop()
	}
	return bw
}

// Submit enqueues a write. It blocks while the committer is two batches
// behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.size)

	select {
	case bw.commitCh <- batch:
	case <-bw.ctx.Done():
		bw.fail(fmt.Errorf("batch writer: dropping batch of %d writes after shutdown", len(batch)))
	}
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	if bw.firstErr == nil {
		bw.firstErr = err
	}
	bw.errMu.Unlock()
	bw.logger.Warn("batch write failed", zap.Error(err))
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if err := bw.commit(batch); err != nil {
			bw.fail(err)
			continue
		}
		bw.errMu.Lock()
		bw.batches++
		bw.errMu.Unlock()
		bw.logger.Debug("batch committed", zap.Int("writes", len(batch)))
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Flushing must survive Close cancelling bw.ctx.
	ctx := context.Background()
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch of %d writes: %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) loop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.ticker.C:
			bw.mu.Lock()
			bw.flushLocked()
			bw.mu.Unlock()
		}
	}
}

// Batches is the number of successfully committed batches.
func (bw *BatchWriter) Batches() int {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.batches
}

// Close flushes what is buffered, waits for the committer and returns the
// first asynchronous error, if any.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	bw.flushLocked()
	bw.mu.Unlock()

	bw.cancel()
	close(bw.commitCh)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }

// SaveBatch writes a decoded lexicon (words and padding pools) through a
// BatchWriter. Batches that fail are rolled back; the first error is
// returned once everything else has been attempted.
func SaveBatch(conn *sql.DB, words []word.Word, padding map[sentence.Type][]word.Word, batchSize int, logger *zap.Logger) error {
	bw := NewBatchWriter(conn, batchSize, 0, logger)
	submit := func(w WriteFunc) error {
		if err := bw.Submit(w); err != nil {
			_ = bw.Close()
			return err
		}
		return nil
	}
	for _, w := range words {
		if err := submit(func(_ context.Context, tx *sql.Tx) error {
			_, err := AddWord(tx, w)
			return err
		}); err != nil {
			return err
		}
	}
	for t, pool := range padding {
		for _, w := range pool {
			if err := submit(func(_ context.Context, tx *sql.Tx) error {
				return AddPaddingWord(tx, t, w)
			}); err != nil {
				return err
			}
		}
	}
	return bw.Close()
}
