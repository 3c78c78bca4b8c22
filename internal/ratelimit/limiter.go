// Package ratelimit provides a fixed-window limiter for submission
// traffic, keyed per identity. A memory backend serves single-node
// deployments; the redis backend shares windows across replicas.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}
