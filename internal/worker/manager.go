package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Stop waits for in-flight batches.
const shutdownTimeout = 30 * time.Second

// WorkerManager owns the lifecycle of all registered workers: it launches
// each in its own goroutine and shuts them down together.
type WorkerManager struct {
	mu      sync.Mutex
	workers []Worker
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewWorkerManager creates an empty manager.
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a worker. Must be called before Start.
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	m.workers = append(m.workers, w)
	m.mu.Unlock()
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

// Start launches every registered worker. A worker returning an error is
// logged but does not stop its siblings.
func (m *WorkerManager) Start(ctx context.Context) error {
	workers := m.snapshot()
	if len(workers) == 0 {
		return fmt.Errorf("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))
	for _, w := range workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()
			if err := w.Start(ctx); err != nil {
				m.logger.Error("Worker exited with error",
					zap.String("name", w.Name()),
					zap.Error(err))
			}
		}(w)
	}
	return nil
}

// Stop signals every worker and waits up to shutdownTimeout for the
// goroutines to drain.
func (m *WorkerManager) Stop() error {
	workers := m.snapshot()
	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker",
				zap.String("name", w.Name()),
				zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All workers stopped")
		return nil
	case <-time.After(shutdownTimeout):
		m.logger.Warn("Worker shutdown timed out", zap.Duration("timeout", shutdownTimeout))
		return fmt.Errorf("worker shutdown timed out after %v", shutdownTimeout)
	}
}

func (m *WorkerManager) snapshot() []Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Worker, len(m.workers))
	copy(out, m.workers)
	return out
}
