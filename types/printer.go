package types

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TERMINAL PRINTER

// TerminalPrinter redraws the training status line in place
type TerminalPrinter struct {
	output        *StatusOutput
	printerCtx    context.Context
	printerCancel context.CancelFunc
	frequency     time.Duration
	done          chan struct{}

	writer *uilive.Writer
}

func NewTerminalPrinter(ctx context.Context, output *StatusOutput, frequency time.Duration) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	return &TerminalPrinter{
		output:        output,
		printerCtx:    printerCtx,
		printerCancel: cancel,
		frequency:     frequency,
		done:          make(chan struct{}),
		writer:        uilive.New(),
	}
}

func (p *TerminalPrinter) Start() {
	p.writer.Start()
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-p.printerCtx.Done():
				p.print()
				p.writer.Stop()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints the last status and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	p.printerCancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	fmt.Fprintln(p.writer, p.output.Get())
}

// STATUS OUTPUT

// StatusOutput holds the line to be printed, updated by the training loop
type StatusOutput struct {
	mu        sync.Mutex
	printable string
}

func NewStatusOutput() *StatusOutput {
	return &StatusOutput{}
}

// Set the output string (blocking)
func (s *StatusOutput) Set(str string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printable = str
}

// Get the output string (blocking)
func (s *StatusOutput) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printable
}
