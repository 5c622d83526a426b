package renderer

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// DefaultProgressInterval is how often a running render reports progress
const DefaultProgressInterval = 2 * time.Second

var printer = message.NewPrinter(language.English)

// FormatCount formats n with thousands separators, e.g. 26214400 -> "26,214,400"
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatStats renders a one-line summary of a finished render
func FormatStats(stats RenderStats) string {
	return printer.Sprintf("%d pixels, %d samples in %v (%.0f samples/sec), %d write errors",
		stats.TotalPixels, stats.TotalSamples, stats.Duration.Round(time.Millisecond),
		stats.SamplesPerSecond(), stats.WriteErrors)
}

// progressReporter periodically logs how many rows have finished
type progressReporter struct {
	total    int
	finished atomic.Int64
	start    time.Time
	logger   core.Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

// startProgress begins reporting every interval. A negative interval disables reporting.
func startProgress(logger core.Logger, total int, interval time.Duration) *progressReporter {
	p := &progressReporter{
		total:  total,
		start:  time.Now(),
		logger: logger,
		done:   make(chan struct{}),
	}
	if interval < 0 {
		return p
	}
	if interval == 0 {
		interval = DefaultProgressInterval
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				n := p.finished.Load()
				if n > 0 {
					elapsed := time.Since(p.start).Seconds()
					rate := float64(n) / elapsed
					p.logger.Printf("%s", printer.Sprintf("  [%d/%d rows] %.1f rows/sec\n", n, p.total, rate))
				}
			}
		}
	}()
	return p
}

// rowDone records one finished row
func (p *progressReporter) rowDone() {
	p.finished.Add(1)
}

// stop ends reporting and waits for the reporter goroutine to exit
func (p *progressReporter) stop() {
	close(p.done)
	p.wg.Wait()
}
