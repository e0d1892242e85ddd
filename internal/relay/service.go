package relay

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/blacktop/tootrelay/internal/logutil"
)

// Service supervises one worker per configured account. Its only
// steady-state activity is waiting for a termination signal or a worker
// fault; either triggers the same shutdown sequence.
type Service struct {
	workers []*Worker
}

// NewService returns a supervisor over the given workers.
func NewService(workers []*Worker) *Service {
	return &Service{workers: workers}
}

// Run starts every worker and blocks until SIGINT/SIGTERM arrives or a
// worker faults. It then cancels the shared context, closes every event
// source, and waits for all workers to finish. The worker fault, if any,
// is returned.
func (s *Service) Run() error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	faults := make(chan error, len(s.workers))
	var wg sync.WaitGroup
	for _, w := range s.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				faults <- err
			}
		}(w)
	}
	logutil.Infof("started %d relay worker(s)", len(s.workers))

	var err error
	select {
	case sig := <-sigs:
		logutil.Infof("received %s, shutting down", sig)
	case err = <-faults:
		logutil.Errorf("worker fault: %s, shutting down", err)
	}

	cancel()
	for _, w := range s.workers {
		w.Close()
	}
	wg.Wait()
	return err
}
