package ui

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats counts what a multi-page walk or update scan produced.
type Stats struct {
	Pages   atomic.Int64
	Items   atomic.Int64
	Batches atomic.Int64

	start time.Time
}

func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

func (s *Stats) Summary() string {
	took := time.Duration(0)
	if !s.start.IsZero() {
		took = time.Since(s.start).Round(time.Millisecond)
	}

	out := fmt.Sprintf("%d pages, %d items", s.Pages.Load(), s.Items.Load())
	if b := s.Batches.Load(); b > 0 {
		out += fmt.Sprintf(", %d batches", b)
	}

	return out + " in " + took.String()
}
