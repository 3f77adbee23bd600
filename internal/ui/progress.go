package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type MPBProgressManager struct {
	p *mpb.Progress
}

func NewProgressManager(out io.Writer) *MPBProgressManager {
	if out == nil {
		out = os.Stderr
	}

	p := mpb.New(
		mpb.WithWidth(40),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

func (pm *MPBProgressManager) Close() {
	pm.p.Wait()
}

func (pm *MPBProgressManager) Register(prefix, unit string) *ProgressHandle {
	h := &ProgressHandle{
		pm:     pm,
		prefix: prefix,
		unit:   unit,
	}
	h.initBar()
	return h
}

// ProgressHandle tracks one open-ended walk. The page total is unknown until
// the listing ends, so it grows one step ahead of the current page.
type ProgressHandle struct {
	pm     *MPBProgressManager
	prefix string
	unit   string
	bar    *mpb.Bar

	items atomic.Int64
	pages atomic.Int64

	start   time.Time
	elapsed atomic.Int64

	final atomic.Bool
}

func (h *ProgressHandle) initBar() {
	h.start = time.Now()

	h.bar = h.pm.p.New(
		0,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),

		mpb.AppendDecorators(
			decor.Any(func(_ decor.Statistics) string {
				return fmt.Sprintf("%d pages | %d %s", h.pages.Load(), h.items.Load(), h.unit)
			}),

			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
		),
	)
}

// Page records one finished page holding n items.
func (h *ProgressHandle) Page(n int) {
	if h.final.Load() {
		return
	}

	pages := h.pages.Add(1)
	h.items.Add(int64(n))
	h.bar.SetTotal(pages+1, false)
	h.bar.SetCurrent(pages)
}

func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))

	h.bar.SetCurrent(h.pages.Load())
	h.bar.SetTotal(-1, true)
}
