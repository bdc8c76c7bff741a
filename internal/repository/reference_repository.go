// Package repository provides database access for the booking engine.
//
// The reference-data repository serves the read-only catalog the wizard
// loads once per session: active vehicles, pricing extras, and blocked
// dates, all maintained by the admin back office. Reads go through a
// short-TTL Redis cache so every wizard mount does not hit Postgres.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ReferenceRepository reads the admin-managed catalog tables.
type ReferenceRepository struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewReferenceRepository creates a new reference-data repository.
func NewReferenceRepository(pool *pgxpool.Pool, redis *redis.Client) *ReferenceRepository {
	return &ReferenceRepository{pool: pool, redis: redis}
}

// ─── Redis-backed fast path ─────────────────────────────────

const (
	cacheKeyVehicles     = "refdata:vehicles"
	cacheKeyExtras       = "refdata:extras"
	cacheKeyBlockedDates = "refdata:blocked_dates"
	cacheTTL             = 5 * time.Minute // admin edits become visible within this window
)

// cachedList returns the cached JSON list at key, or nil on miss/error.
func cachedList[T any](ctx context.Context, r *redis.Client, key string) []T {
	raw, err := r.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[refdata] corrupt cache entry %s, ignoring: %v", key, err)
		return nil
	}
	return out
}

// cacheList stores a JSON list at key. Fire-and-forget.
func cacheList[T any](ctx context.Context, r *redis.Client, key string, list []T) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := r.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		log.Printf("[refdata] cache write %s failed: %v", key, err)
	}
}

// ─── Queries ────────────────────────────────────────────────

// ListActiveVehicles returns the bookable fleet, cheapest first.
func (r *ReferenceRepository) ListActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	if cached := cachedList[model.Vehicle](ctx, r.redis, cacheKeyVehicles); cached != nil {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, capacity, luggage_capacity,
		       price_per_mile, overnight_surcharge, active, created_at
		FROM vehicles
		WHERE active = TRUE
		ORDER BY price_per_mile ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []model.Vehicle
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Name, &v.Category, &v.Capacity, &v.LuggageCapacity,
			&v.PricePerMile, &v.OvernightSurcharge, &v.Active, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	cacheList(ctx, r.redis, cacheKeyVehicles, vehicles)
	return vehicles, nil
}

// ListActiveExtras returns the optional pricing extras.
func (r *ReferenceRepository) ListActiveExtras(ctx context.Context) ([]model.PricingExtra, error) {
	if cached := cachedList[model.PricingExtra](ctx, r.redis, cacheKeyExtras); cached != nil {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price
		FROM pricing_extras
		WHERE active = TRUE
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list extras: %w", err)
	}
	defer rows.Close()

	var extras []model.PricingExtra
	for rows.Next() {
		var e model.PricingExtra
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, fmt.Errorf("scan extra: %w", err)
		}
		extras = append(extras, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list extras: %w", err)
	}

	cacheList(ctx, r.redis, cacheKeyExtras, extras)
	return extras, nil
}

// ListBlockedDates returns the dates the fleet is closed to new bookings,
// as YYYY-MM-DD strings.
func (r *ReferenceRepository) ListBlockedDates(ctx context.Context) ([]string, error) {
	if cached := cachedList[string](ctx, r.redis, cacheKeyBlockedDates); cached != nil {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT to_char(blocked_on, 'YYYY-MM-DD')
		FROM blocked_dates
		WHERE blocked_on >= CURRENT_DATE
		ORDER BY blocked_on ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan blocked date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}

	cacheList(ctx, r.redis, cacheKeyBlockedDates, dates)
	return dates, nil
}
