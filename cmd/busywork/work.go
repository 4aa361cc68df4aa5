package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/philipp01105/nlog-loupe/logger"
)

// errTestException is what the failing worker reports on start
var errTestException = errors.New("this is a test exception")

type workOptions struct {
	workers  []string
	messages int
	interval time.Duration
	failing  string
}

// busyWork logs count trace messages from its own goroutine
type busyWork struct {
	name string
	log  *logger.Logger
}

func newBusyWork(f *logger.Factory, name string) *busyWork {
	return &busyWork{name: name, log: f.GetLogger("BusyWork." + name)}
}

// start launches the worker. The failing worker still runs but reports
// an error to its caller.
func (w *busyWork) start(ctx context.Context, wg *sync.WaitGroup, opts workOptions) error {
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.run(ctx, opts.messages, opts.interval)
	}()
	if w.name == opts.failing {
		return errTestException
	}
	return nil
}

func (w *busyWork) run(ctx context.Context, count int, interval time.Duration) {
	for i := 1; i <= count; i++ {
		w.log.Tracef("%s message %d of %d", w.name, i, count)
		if i == count {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (a *app) runWorkers(ctx context.Context, opts workOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.log.Info("Starting application.")

	var wg sync.WaitGroup
	for _, name := range opts.workers {
		w := newBusyWork(a.factory, name)
		if err := w.start(ctx, &wg, opts); err != nil {
			// The error travels as a format argument, not as an explicit error
			a.log.Warnf("Worker error\nWorker %s threw an exception: %v", name, err)
		}
	}
	wg.Wait()
	return ctx.Err()
}

// logException logs an error wrapping another error
func (a *app) logException() {
	inner := fmt.Errorf("key: %w", errors.New("this is the innermost exception"))
	outer := fmt.Errorf("this is the outer exception: %w", inner)
	a.log.Error("Oh Snap!  We just had an exception!", logger.Err(outer))
}
