// Package distance resolves mileage estimates for the booking wizard.
//
// The estimator tries the external routing service first and falls back to
// a great-circle figure on any failure, so an estimate is always produced.
// The fallback triggers on failure, not elapsed time; the routing call is
// bounded by its own timeout, which simply counts as failure.
package distance

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/routing"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/pkg/geo"
)

// Router is the slice of the routing client the estimator needs.
type Router interface {
	Route(ctx context.Context, pickup, dropoff model.Coordinates) (*routing.Route, error)
}

// ─── Estimator ──────────────────────────────────────────────

// Estimator produces DistanceEstimates with routed-then-straight-line
// semantics and supersede-by-value async delivery.
//
// Concurrency model:
//   - Request fires at most one goroutine per distinct coordinate pair.
//   - A newer request supersedes any in-flight one: the generation counter
//     makes only the latest input's result deliverable. Stale completions
//     are discarded, never delivered.
//   - Identical inputs do not re-trigger a call while one is in flight or
//     after one has already succeeded for them.
type Estimator struct {
	router Router

	mu       sync.Mutex
	gen      uint64
	inflight string // key of the request currently running, "" if none
	lastDone string // key of the last delivered estimate
}

// New creates an estimator over the given routing client.
func New(router Router) *Estimator {
	return &Estimator{router: router}
}

// Estimate resolves a mileage figure synchronously. It never fails: on any
// routing error it degrades to the haversine straight-line distance
// (Earth radius 3958.8 mi), rounded to one decimal place.
func (e *Estimator) Estimate(ctx context.Context, pickup, dropoff model.Coordinates) model.DistanceEstimate {
	route, err := e.router.Route(ctx, pickup, dropoff)
	if err == nil && route.DistanceMeters > 0 {
		miles := geo.RoundMiles(geo.MilesFromMeters(route.DistanceMeters))
		minutes := math.Round(route.DurationSeconds/60*10) / 10
		return model.DistanceEstimate{
			Miles:           miles,
			Source:          model.SourceRouted,
			DurationMinutes: &minutes,
		}
	}

	if err != nil {
		log.Printf("[distance] routing failed, falling back to straight-line: %v", err)
	}
	// Without a routed duration, approximate one at the fleet's average
	// door-to-door speed so the quote still shows a journey time.
	minutes := math.Round(geo.EstimateTimeMinutes(pickup, dropoff)*10) / 10
	return model.DistanceEstimate{
		Miles:           geo.RoundMiles(geo.HaversineMiles(pickup, dropoff)),
		Source:          model.SourceStraightLine,
		DurationMinutes: &minutes,
	}
}

// Request resolves an estimate asynchronously and hands it to deliver.
// Returns false when the call was skipped because an identical request is
// already in flight or already produced the last delivered estimate.
//
// deliver runs on the estimator's goroutine; callers that mutate shared
// state from it must synchronize.
func (e *Estimator) Request(
	ctx context.Context,
	pickup, dropoff model.Coordinates,
	deliver func(model.DistanceEstimate),
) bool {
	key := coordKey(pickup, dropoff)

	e.mu.Lock()
	if key == e.inflight || key == e.lastDone {
		e.mu.Unlock()
		return false
	}
	e.gen++
	gen := e.gen
	e.inflight = key
	e.mu.Unlock()

	go func() {
		est := e.Estimate(ctx, pickup, dropoff)

		e.mu.Lock()
		latest := gen == e.gen
		if latest {
			e.lastDone = key
			e.inflight = ""
		}
		e.mu.Unlock()

		if !latest {
			// Superseded by a newer coordinate change; the latest
			// input's result wins.
			log.Printf("[distance] discarding stale estimate for superseded input")
			return
		}
		deliver(est)
	}()

	return true
}

func coordKey(pickup, dropoff model.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f;%.6f,%.6f", pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon)
}
