package tinycore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Cleanup is returned by a factory along with its service
// and is called once the owning registry is closed.
type Cleanup func()

// Calls cleanup and logs a panic instead of propagating it.
// Returns recovered panic as an error.
func (fn Cleanup) CallWithRecovery(log *zap.Logger, serviceName string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup of %q panicked: %v", serviceName, r)
			log.Error(
				"recovered from panic during cleanup",
				zap.String("service", serviceName),
				zap.Any("panic", r),
			)
		}
	}()

	fn()

	return nil
}

type cleanupRecord struct {
	fn          Cleanup
	serviceName string
}

// cleanups are kept in construction order and run in reverse.
type cleanupStack struct {
	records []cleanupRecord
	mu      sync.Mutex
	cleaned bool
}

func (cs *cleanupStack) push(serviceName string, fn Cleanup) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.cleaned {
		return false
	}

	cs.records = append(cs.records, cleanupRecord{fn: fn, serviceName: serviceName})

	return true
}

func (cs *cleanupStack) clean(log *zap.Logger) []error {
	cs.mu.Lock()
	if cs.cleaned {
		cs.mu.Unlock()
		return nil
	}

	records := cs.records
	cs.records = nil
	cs.cleaned = true
	cs.mu.Unlock()

	var errs []error
	for i := len(records) - 1; i >= 0; i-- {
		if err := records[i].fn.CallWithRecovery(log, records[i].serviceName); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// worker to close registry once its context is done
func cleanupWorker(ctx context.Context, closed <-chan struct{}, closeFn func() error, log *zap.Logger) {
	select {
	case <-ctx.Done():
		if err := closeFn(); err != nil {
			log.Error("registry cleanup finished with errors", zap.Error(err))
		}
	case <-closed:
	}
}
