// Package repository persists committed route plans and serves them
// back by uuid. Tables are defined in migrations/001_create_schema.up.sql.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/model"
)

// ErrPlanNotFound is returned when no plan exists for a uuid.
var ErrPlanNotFound = errors.New("route plan not found")

const (
	redisPlanKeyPrefix = "plan:"
	redisPlanTTL       = 24 * time.Hour
)

// PlanRepository stores plans in PostgreSQL with a Redis read-through
// cache on the full response document.
type PlanRepository struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(pool *pgxpool.Pool, redis *redis.Client) *PlanRepository {
	return &PlanRepository{pool: pool, redis: redis}
}

// SavePlan persists the plan header, its routes, and the full response
// document, then primes the Redis cache. Runs in one transaction.
func (r *PlanRepository) SavePlan(ctx context.Context, resp *model.PlanResponse) error {
	doc, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", resp.UUID, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save plan: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO route_plans (uuid, plan_date, shift, trip_type,
			total_employees, total_routed, total_routes, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, resp.UUID, resp.Date, resp.Shift, resp.TripType,
		resp.TotalEmployees, resp.TotalRoutedEmployees, resp.TotalRoutes, doc)
	if err != nil {
		return fmt.Errorf("insert plan %s: %w", resp.UUID, err)
	}

	for _, rt := range resp.Routes {
		empCodes := make([]string, 0, len(rt.Employees))
		for _, e := range rt.Employees {
			empCodes = append(empCodes, e.EmpCode)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO plan_routes (plan_uuid, route_number, unique_key,
				vehicle_type, vehicle_capacity, occupancy, distance_km,
				duration_s, guarded, swapped, after_fleet_exhaustion, emp_codes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, resp.UUID, rt.RouteNumber, rt.UniqueKey,
			rt.VehicleType, rt.VehicleCapacity, rt.Occupancy, rt.DistanceKm,
			rt.DurationSeconds, rt.Guard, rt.Swapped, rt.AfterFleetExhaustion, empCodes)
		if err != nil {
			return fmt.Errorf("insert route %d of plan %s: %w", rt.RouteNumber, resp.UUID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit plan %s: %w", resp.UUID, err)
	}

	// Prime the cache (fire-and-forget, don't block on errors).
	_ = r.redis.Set(ctx, redisPlanKeyPrefix+resp.UUID, doc, redisPlanTTL).Err()
	return nil
}

// GetPlan fetches a plan response by uuid.
//
// Strategy:
//  1. Try Redis cache first (fast path, <1ms).
//  2. On cache miss, read PostgreSQL (slow path), then cache in Redis.
func (r *PlanRepository) GetPlan(ctx context.Context, planUUID string) (*model.PlanResponse, error) {
	key := redisPlanKeyPrefix + planUUID

	// ── Fast path: Redis cache ──────────────────────────
	if cached, err := r.redis.Get(ctx, key).Bytes(); err == nil {
		var resp model.PlanResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
		// Corrupt cache entry; fall through to the database.
		_ = r.redis.Del(ctx, key).Err()
	}

	// ── Slow path: PostgreSQL ───────────────────────────
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT response FROM route_plans WHERE uuid = $1`, planUUID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query plan %s: %w", planUUID, err)
	}

	var resp model.PlanResponse
	if err := json.Unmarshal(doc, &resp); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", planUUID, err)
	}

	_ = r.redis.Set(ctx, key, doc, redisPlanTTL).Err()
	return &resp, nil
}
