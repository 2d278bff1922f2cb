package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/avatarctic/extraction-cache/internal/core/domain/extraction"
)

// LatencyTracker keeps one DDSketch per operation name.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker; relativeAccuracy of 0.01 gives 1%
// accurate quantiles.
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds a duration, in milliseconds, to the operation's sketch.
func (lt *LatencyTracker) Record(operation string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[operation]
	if !exists {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[operation] = sketch
	}

	_ = sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// Summaries returns quantiles for every operation seen so far.
func (lt *LatencyTracker) Summaries() map[string]extraction.LatencySummary {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	out := make(map[string]extraction.LatencySummary, len(lt.sketches))
	for name, sketch := range lt.sketches {
		count := sketch.GetCount()
		if count == 0 {
			out[name] = extraction.LatencySummary{}
			continue
		}
		qs, err := sketch.GetValuesAtQuantiles([]float64{0.50, 0.90, 0.99})
		if err != nil {
			continue
		}
		out[name] = extraction.LatencySummary{Count: count, P50: qs[0], P90: qs[1], P99: qs[2]}
	}
	return out
}
