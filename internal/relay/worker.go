package relay

import (
	"context"
	"errors"

	"github.com/blacktop/tootrelay/internal/logutil"
)

// Worker binds one Dispatcher to its event source and processes events
// strictly one at a time, in arrival order.
type Worker struct {
	name       string
	source     Source
	dispatcher *Dispatcher
}

// NewWorker returns a worker for one configured account.
func NewWorker(name string, source Source, dispatcher *Dispatcher) *Worker {
	return &Worker{name: name, source: source, dispatcher: dispatcher}
}

// Run consumes the event stream until the context is canceled. The next
// event is not pulled until the current dispatch fully completes,
// including cleanup. A broken stream is returned as an error so the
// supervisor can escalate it.
func (w *Worker) Run(ctx context.Context) error {
	events, err := w.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	logutil.Infof("[%s] listening for posts", w.name)
	for {
		select {
		case <-ctx.Done():
			logutil.Debugf("[%s] stopping listener", w.name)
			return nil
		case status, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New(w.name + ": event stream closed")
			}
			w.dispatcher.Dispatch(ctx, status)
		}
	}
}

// Close asks the worker's source to stop delivering events.
func (w *Worker) Close() {
	w.source.Close()
}
