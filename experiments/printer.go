package experiments

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// workerStatus holds the latest printable status line of one worker.
type workerStatus struct {
	mu        sync.Mutex
	printable string
}

func newWorkerStatus(idx int) *workerStatus {
	return &workerStatus{printable: fmt.Sprintf("worker %d: pending", idx)}
}

// Set the status line (blocking)
func (s *workerStatus) Set(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printable = line
}

// Get the status line (blocking)
func (s *workerStatus) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printable
}

// workerPrinter refreshes one terminal line per worker while the async
// trainer runs.
type workerPrinter struct {
	statuses      []*workerStatus
	ctx           context.Context
	printerCtx    context.Context
	printerCancel context.CancelFunc

	writer  *uilive.Writer
	writers []io.Writer
}

func newWorkerPrinter(ctx context.Context, statuses []*workerStatus) *workerPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	writer := uilive.New()
	writers := make([]io.Writer, len(statuses))
	for i := 1; i < len(statuses); i++ {
		writers[i] = writer.Newline()
	}
	return &workerPrinter{
		statuses:      statuses,
		ctx:           ctx,
		printerCtx:    printerCtx,
		printerCancel: cancel,
		writer:        writer,
		writers:       writers,
	}
}

func (p *workerPrinter) Start() {
	go func() {
		for {
			select {
			case <-p.printerCtx.Done():
				p.writer.Stop()
				return
			case <-p.ctx.Done():
				p.writer.Stop()
				return
			case <-time.After(time.Second):
				p.print()
			}
		}
	}()
}

func (p *workerPrinter) Stop() {
	p.printerCancel()
}

func (p *workerPrinter) print() {
	for i, status := range p.statuses {
		if i == 0 {
			fmt.Fprintln(p.writer, status.Get())
		} else {
			fmt.Fprintln(p.writers[i], status.Get())
		}
	}
	p.writer.Flush()
}
