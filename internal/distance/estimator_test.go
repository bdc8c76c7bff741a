package distance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/routing"
)

// stubRouter scripts the routing collaborator.
type stubRouter struct {
	mu    sync.Mutex
	route *routing.Route
	err   error
	calls int
	delay time.Duration
}

func (s *stubRouter) Route(ctx context.Context, pickup, dropoff model.Coordinates) (*routing.Route, error) {
	s.mu.Lock()
	s.calls++
	route, err, delay := s.route, s.err, s.delay
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return route, err
}

func (s *stubRouter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	westminster = model.Coordinates{Lat: 51.5007, Lon: -0.1246}
	heathrow    = model.Coordinates{Lat: 51.4700, Lon: -0.4543}
)

func TestEstimate_Routed(t *testing.T) {
	e := New(&stubRouter{route: &routing.Route{DistanceMeters: 30577.5, DurationSeconds: 2100}})

	got := e.Estimate(context.Background(), westminster, heathrow)
	if got.Source != model.SourceRouted {
		t.Fatalf("Source = %s, want routed", got.Source)
	}
	// 30577.5 m = 19.0 mi
	if got.Miles != 19.0 {
		t.Errorf("Miles = %v, want 19.0", got.Miles)
	}
	if got.DurationMinutes == nil || *got.DurationMinutes != 35.0 {
		t.Errorf("DurationMinutes = %v, want 35.0", got.DurationMinutes)
	}
}

// Routing unavailable → straight-line fallback, Westminster to Heathrow
// haversine is 14.3 mi at Earth radius 3958.8.
func TestEstimate_FallbackOnError(t *testing.T) {
	e := New(&stubRouter{err: errors.New("connection refused")})

	got := e.Estimate(context.Background(), westminster, heathrow)
	if got.Source != model.SourceStraightLine {
		t.Fatalf("Source = %s, want straight-line", got.Source)
	}
	if got.Miles != 14.3 {
		t.Errorf("Miles = %v, want 14.3", got.Miles)
	}
	// Approximated at the 28 mph average speed when no routed duration
	// is available.
	if got.DurationMinutes == nil || *got.DurationMinutes != 30.7 {
		t.Errorf("DurationMinutes = %v, want 30.7", got.DurationMinutes)
	}
}

func TestEstimate_FallbackOnNoRoute(t *testing.T) {
	e := New(&stubRouter{err: routing.ErrNoRoute})

	got := e.Estimate(context.Background(), westminster, heathrow)
	if got.Source != model.SourceStraightLine {
		t.Errorf("Source = %s, want straight-line on no-route", got.Source)
	}
	if got.Miles < 0 {
		t.Errorf("Miles = %v, want >= 0", got.Miles)
	}
}

func TestEstimate_FallbackOnZeroDistance(t *testing.T) {
	e := New(&stubRouter{route: &routing.Route{DistanceMeters: 0}})

	got := e.Estimate(context.Background(), westminster, heathrow)
	if got.Source != model.SourceStraightLine {
		t.Errorf("Source = %s, want straight-line on empty route", got.Source)
	}
}

func TestRequest_DeliversAsync(t *testing.T) {
	e := New(&stubRouter{err: errors.New("down")})

	done := make(chan model.DistanceEstimate, 1)
	if !e.Request(context.Background(), westminster, heathrow, func(est model.DistanceEstimate) {
		done <- est
	}) {
		t.Fatal("Request skipped a fresh input")
	}

	select {
	case est := <-done:
		if est.Source != model.SourceStraightLine || est.Miles != 14.3 {
			t.Errorf("delivered %+v, want straight-line 14.3", est)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("estimate never delivered")
	}
}

// Identical inputs must not re-trigger a call once one has completed for
// them, and must be skipped while one is in flight.
func TestRequest_DedupesIdenticalInputs(t *testing.T) {
	router := &stubRouter{err: errors.New("down")}
	e := New(router)

	done := make(chan model.DistanceEstimate, 1)
	e.Request(context.Background(), westminster, heathrow, func(est model.DistanceEstimate) { done <- est })
	<-done

	if e.Request(context.Background(), westminster, heathrow, func(model.DistanceEstimate) {
		t.Error("duplicate request delivered")
	}) {
		t.Error("Request re-triggered for identical completed input")
	}
	if got := router.callCount(); got != 1 {
		t.Errorf("router called %d times, want 1", got)
	}
}

// A newer coordinate change supersedes an in-flight estimate: only the
// latest input's result is delivered.
func TestRequest_LatestInputWins(t *testing.T) {
	router := &stubRouter{err: errors.New("down"), delay: 100 * time.Millisecond}
	e := New(router)

	var mu sync.Mutex
	var delivered []model.DistanceEstimate
	deliver := func(est model.DistanceEstimate) {
		mu.Lock()
		delivered = append(delivered, est)
		mu.Unlock()
	}

	manchester := model.Coordinates{Lat: 53.4808, Lon: -2.2426}
	e.Request(context.Background(), westminster, heathrow, deliver)
	e.Request(context.Background(), westminster, manchester, deliver)

	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("delivered %d estimates, want only the latest", len(delivered))
	}
	// Westminster→Manchester is ~160 mi; the superseded Heathrow figure
	// (14.3) must not be the one delivered.
	if delivered[0].Miles < 100 {
		t.Errorf("delivered %v, want the Manchester estimate", delivered[0])
	}
}
