// Package collector defines the Collector contract and the hardware,
// system and network collectors.
//
// A collector never returns an error: the whole body runs through
// result.Safe, and individual field lookups fall back to sentinels so a
// single failed query does not discard the rest of the payload.
package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// Capabilities describes what a collector needs in order to run.
type Capabilities interface {
	// IsAvailable reports whether the collector can run on this platform.
	IsAvailable() bool

	// RequiredPermissions returns the scopes the collector needs; empty
	// if none.
	RequiredPermissions() []platform.Permission

	// MinimumAPILevel returns the lowest platform API level supported.
	MinimumAPILevel() int

	// Description returns a human-readable label used in error messages.
	Description() string
}

// Collector gathers one category of diagnostics.
type Collector[T any] interface {
	Capabilities

	// Collect performs the platform queries and returns the outcome.
	Collect(ctx context.Context) result.Result[T]
}

// base carries the static capability data shared by all collectors.
type base struct {
	platform    platform.Platform
	logger      *zap.Logger
	minAPI      int
	permissions []platform.Permission
	description string
	now         func() time.Time
}

func newBase(p platform.Platform, logger *zap.Logger, minAPI int, description string, perms ...platform.Permission) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		platform:    p,
		logger:      logger,
		minAPI:      minAPI,
		permissions: perms,
		description: description,
		now:         time.Now,
	}
}

func (b *base) RequiredPermissions() []platform.Permission {
	out := make([]platform.Permission, len(b.permissions))
	copy(out, b.permissions)
	return out
}

func (b *base) MinimumAPILevel() int { return b.minAPI }

func (b *base) Description() string { return b.description }

// IsAvailable reports whether the platform API level meets the minimum.
func (b *base) IsAvailable() bool { return b.checkAPILevel() }

func (b *base) checkAPILevel() bool {
	return b.platform.APILevel() >= b.minAPI
}

func (b *base) checkPermissions() bool {
	for _, p := range b.permissions {
		if !b.platform.HasPermission(p) {
			return false
		}
	}
	return true
}

// safeExecute runs fn inside result.Safe, short-circuiting to
// NotAvailable when the platform is older than the collector supports.
func safeExecute[T any](b *base, fn func() (T, error)) result.Result[T] {
	if !b.checkAPILevel() {
		b.logger.Debug("Collector not available on this API level",
			zap.String("collector", b.description),
			zap.Int("api_level", b.platform.APILevel()),
			zap.Int("minimum", b.minAPI))
		return result.Unavailable[T]()
	}
	r := result.Safe(b.description, fn)
	if r.Kind() == result.KindError {
		b.logger.Warn("Collection failed",
			zap.String("collector", b.description),
			zap.Error(r.Err()))
	}
	return r
}

// optional returns a pointer to s, or nil when s is blank.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
