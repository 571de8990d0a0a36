// Package store persists the working copy of a maintenance plan in Redis.
// A plan is caller-owned state: one JSON snapshot per user and organization,
// loaded before every change and written back after it.
package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maintenance_backend/internal/plans/domain"
	"maintenance_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "maintenance:plan:"

// Store reads and writes plan snapshots.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a store on an existing client. A non-positive ttl keeps
// snapshots until they are deleted.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// NewClient builds a Redis client from the plan store configuration.
func NewClient(cfg config.PlanStoreConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig != nil {
			opt.TLSConfig = opt.TLSConfig.Clone()
			opt.TLSConfig.InsecureSkipVerify = true
		} else {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return redis.NewClient(opt), nil
}

func key(organizationID, userID uuid.UUID) string {
	return keyPrefix + organizationID.String() + ":" + userID.String()
}

// Load returns the stored plan, or a fresh draft when none exists.
func (s *Store) Load(ctx context.Context, organizationID, userID uuid.UUID) (domain.Plan, error) {
	raw, err := s.rdb.Get(ctx, key(organizationID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.New(), nil
	}
	if err != nil {
		return domain.Plan{}, fmt.Errorf("failed to load plan: %w", err)
	}

	var plan domain.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return domain.Plan{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	if plan.Stage == "" {
		plan.Stage = domain.StageDraft
	}
	if plan.Assets == nil {
		plan.Assets = []domain.PlanAsset{}
	}
	if plan.StageWarnings == nil {
		plan.StageWarnings = []string{}
	}
	return plan, nil
}

// Save writes the plan and refreshes its expiry.
func (s *Store) Save(ctx context.Context, organizationID, userID uuid.UUID, plan domain.Plan) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := s.rdb.Set(ctx, key(organizationID, userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Delete removes the stored plan.
func (s *Store) Delete(ctx context.Context, organizationID, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, key(organizationID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}
