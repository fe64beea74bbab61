package audit

import (
	"context"
	"sync"
	"time"

	"chat_backend/internal/logging"
)

// BufferedSink queues records in memory and flushes them to a BatchWriter
// when FlushSize records are pending or FlushInterval elapses.
type BufferedSink struct {
	writer        BatchWriter
	flushSize     int
	flushInterval time.Duration
	pod           string

	recCh  chan Record
	doneCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool

	logger *logging.Logger
}

// NewBufferedSink starts the background flusher.
func NewBufferedSink(writer BatchWriter, bufferSize, flushSize int, flushInterval time.Duration, pod string) *BufferedSink {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if flushSize < 1 {
		flushSize = 1
	}
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}

	s := &BufferedSink{
		writer:        writer,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		pod:           pod,
		recCh:         make(chan Record, bufferSize),
		doneCh:        make(chan struct{}),
		logger:        logging.NewLogger("audit"),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue queues a record. If the queue is full or the sink is shut down
// the record is dropped.
func (s *BufferedSink) Enqueue(rec Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if rec.Pod == "" {
		rec.Pod = s.pod
	}

	select {
	case s.recCh <- rec:
		return true
	default:
		s.logger.Warn("audit queue full, dropping record", "user_id", rec.UserID, "operation", rec.Operation)
		return false
	}
}

func (s *BufferedSink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, s.flushSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
			s.logger.Error("failed to flush audit batch", "count", len(batch), "error", err)
		}
		batch = make([]Record, 0, s.flushSize)
	}

	for {
		select {
		case rec := <-s.recCh:
			batch = append(batch, rec)
			if len(batch) >= s.flushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.doneCh:
			for {
				select {
				case rec := <-s.recCh:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Shutdown drains the queue, flushes the last batch and stops the flusher.
// It returns ctx.Err() if ctx ends first.
func (s *BufferedSink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.doneCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
