// Package deviceinfo collects hardware, system and network diagnostics
// through a small façade with a per-category, time-based result cache.
//
// Construct an SDK with New and pass it to the code that needs it:
//
//	sdk := deviceinfo.New(platform.New(), deviceinfo.DefaultConfig(),
//		deviceinfo.WithLogger(logger))
//	report := sdk.CollectAll(ctx)
//	if hw, ok := report.Hardware(); ok {
//		fmt.Println(hw.Model)
//	}
//
// Initialize and Instance provide a process-wide instance for hosts that
// cannot thread one through.
package deviceinfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vitalis-app/deviceinfo/collector"
	"github.com/vitalis-app/deviceinfo/internal/cache"
	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// ErrUnknownCategory is the cause of the Error returned for a category
// outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

// Clock supplies the time used to stamp and expire cache entries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SDK is the façade over the collectors and the result cache. It is safe
// for concurrent use.
type SDK struct {
	platform platform.Platform
	clock    Clock
	logger   *zap.Logger
	level    zap.AtomicLevel

	mu  sync.RWMutex
	cfg Config

	hardware *category[models.HardwareInfo]
	system   *category[models.SystemInfo]
	network  *category[models.NetworkInfo]
}

// Option customizes an SDK built by New.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	clock    Clock
	hardware collector.Collector[models.HardwareInfo]
	system   collector.Collector[models.SystemInfo]
	network  collector.Collector[models.NetworkInfo]
}

// WithLogger sets the base logger. Its output is further gated by
// Config.LogLevel. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces the time source used by the cache.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithHardwareCollector replaces the hardware collector.
func WithHardwareCollector(c collector.Collector[models.HardwareInfo]) Option {
	return func(o *options) { o.hardware = c }
}

// WithSystemCollector replaces the system collector.
func WithSystemCollector(c collector.Collector[models.SystemInfo]) Option {
	return func(o *options) { o.system = c }
}

// WithNetworkCollector replaces the network collector.
func WithNetworkCollector(c collector.Collector[models.NetworkInfo]) Option {
	return func(o *options) { o.network = c }
}

// New builds an SDK for platform p. A nil p means the running host.
func New(p platform.Platform, cfg Config, opts ...Option) *SDK {
	o := options{logger: zap.NewNop(), clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if p == nil {
		p = platform.New()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = systemClock{}
	}

	s := &SDK{
		platform: p,
		clock:    o.clock,
		level:    zap.NewAtomicLevelAt(zapcore.FatalLevel),
		cfg:      cfg,
	}
	s.logger = gateLogger(o.logger.Named("deviceinfo"), s.level)
	s.level.SetLevel(cfg.LogLevel.zapLevel())

	if o.hardware == nil {
		o.hardware = collector.NewHardwareCollector(p, s.logger)
	}
	if o.system == nil {
		o.system = collector.NewSystemCollector(p, s.logger)
	}
	if o.network == nil {
		o.network = collector.NewNetworkCollector(p, s.logger)
	}
	s.hardware = &category[models.HardwareInfo]{name: CategoryHardware, collector: o.hardware}
	s.system = &category[models.SystemInfo]{name: CategorySystem, collector: o.system}
	s.network = &category[models.NetworkInfo]{name: CategoryNetwork, collector: o.network}

	s.logger.Debug("SDK created",
		zap.String("platform", p.Name()),
		zap.Bool("caching", cfg.CachingEnabled),
		zap.Int("cache_expiration_minutes", cfg.CacheExpirationMinutes))
	return s
}

// gateLogger wraps base so that it only emits at or above level. A
// logger whose core is already disabled is returned unchanged.
func gateLogger(base *zap.Logger, level zap.AtomicLevel) *zap.Logger {
	if !base.Core().Enabled(zapcore.FatalLevel) {
		return base
	}
	return base.WithOptions(zap.IncreaseLevel(level))
}

// CollectAll collects every category in order, one at a time, through the
// cache. Non-Success outcomes are left out of the report unless
// Config.IncludeUnavailable is set.
func (s *SDK) CollectAll(ctx context.Context) *Report {
	include := s.Config().IncludeUnavailable
	r := &Report{}

	if res := s.hardware.fetch(ctx, s); include || res.IsSuccess() {
		r.hardware = &res
	}
	if res := s.system.fetch(ctx, s); include || res.IsSuccess() {
		r.system = &res
	}
	if res := s.network.fetch(ctx, s); include || res.IsSuccess() {
		r.network = &res
	}

	r.generatedAt = s.clock.Now()
	if r.HasErrors() {
		s.logger.Warn("Collection finished with errors", zap.Strings("errors", r.Errors()))
	}
	return r
}

// Collect returns the outcome for one category. An unknown category
// yields an Error naming it.
func (s *SDK) Collect(ctx context.Context, c Category) result.Outcome {
	slot, ok := s.slot(c)
	if !ok {
		s.logger.Warn("Unknown category requested", zap.String("category", string(c)))
		return result.Failure[any](
			fmt.Errorf("%w: %s", ErrUnknownCategory, c),
			fmt.Sprintf("Category '%s' not found", c),
		)
	}
	return slot.collect(ctx, s)
}

// HardwareInfo returns the hardware payload, or false for any non-Success
// outcome.
func (s *SDK) HardwareInfo(ctx context.Context) (models.HardwareInfo, bool) {
	return s.hardware.fetch(ctx, s).Value()
}

// SystemInfo returns the system payload, or false for any non-Success
// outcome.
func (s *SDK) SystemInfo(ctx context.Context) (models.SystemInfo, bool) {
	return s.system.fetch(ctx, s).Value()
}

// NetworkInfo returns the network payload, or false for any non-Success
// outcome.
func (s *SDK) NetworkInfo(ctx context.Context) (models.NetworkInfo, bool) {
	return s.network.fetch(ctx, s).Value()
}

// RequiredPermissions returns the permissions each category needs.
// Categories that need none are omitted.
func (s *SDK) RequiredPermissions() map[Category][]platform.Permission {
	out := make(map[Category][]platform.Permission)
	for _, slot := range s.slots() {
		if perms := slot.capabilities().RequiredPermissions(); len(perms) > 0 {
			out[slot.category()] = perms
		}
	}
	return out
}

// MissingPermissions returns, per category, the required permissions the
// process does not hold. Categories missing nothing are omitted.
func (s *SDK) MissingPermissions() map[Category][]platform.Permission {
	out := make(map[Category][]platform.Permission)
	for _, slot := range s.slots() {
		var missing []platform.Permission
		for _, p := range slot.capabilities().RequiredPermissions() {
			if !s.platform.HasPermission(p) {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			out[slot.category()] = missing
		}
	}
	return out
}

// AvailableCollectors reports, per category, whether its collector can
// run on this platform.
func (s *SDK) AvailableCollectors() map[Category]bool {
	out := make(map[Category]bool, 3)
	for _, slot := range s.slots() {
		out[slot.category()] = slot.capabilities().IsAvailable()
	}
	return out
}

// UpdateConfig replaces the configuration. Disabling caching clears the
// cache immediately.
func (s *SDK) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	s.level.SetLevel(cfg.LogLevel.zapLevel())
	if !cfg.CachingEnabled {
		for _, slot := range s.slots() {
			slot.clear()
		}
	}
	s.logger.Info("Configuration updated",
		zap.Bool("caching", cfg.CachingEnabled),
		zap.Int("cache_expiration_minutes", cfg.CacheExpirationMinutes),
		zap.Bool("include_unavailable", cfg.IncludeUnavailable),
		zap.Stringer("log_level", cfg.LogLevel))
}

// Config returns the current configuration.
func (s *SDK) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ClearCache removes every cache entry.
func (s *SDK) ClearCache() {
	for _, slot := range s.slots() {
		slot.clear()
	}
	s.logger.Debug("Cache cleared")
}

// ClearCategory removes the cache entry of one category. Unknown
// categories are ignored.
func (s *SDK) ClearCategory(c Category) {
	if slot, ok := s.slot(c); ok {
		slot.clear()
		s.logger.Debug("Cache entry cleared", zap.String("category", string(c)))
	}
}

// IsCached reports whether c has a cache entry that has not expired.
func (s *SDK) IsCached(c Category) bool {
	slot, ok := s.slot(c)
	if !ok {
		return false
	}
	at, ok := slot.StoredAt()
	return ok && cache.Valid(at, s.clock.Now(), s.Config().Expiration())
}

// CacheStats summarizes the cache. Computed on each call.
type CacheStats struct {
	TotalEntries      int       `json:"total_entries"`
	ValidEntries      int       `json:"valid_entries"`
	ExpiredEntries    int       `json:"expired_entries"`
	ExpirationMinutes int       `json:"expiration_minutes"`
	Oldest            time.Time `json:"oldest"`
	Newest            time.Time `json:"newest"`
}

// CacheStats returns entry counts and timestamp extremes. Oldest and
// Newest are zero when the cache is empty.
func (s *SDK) CacheStats() CacheStats {
	cfg := s.Config()
	slots := s.slots()
	stamps := make([]cache.Timestamped, len(slots))
	for i, slot := range slots {
		stamps[i] = slot
	}
	st := cache.Summarize(s.clock.Now(), cfg.Expiration(), stamps...)
	return CacheStats{
		TotalEntries:      st.TotalEntries,
		ValidEntries:      st.ValidEntries,
		ExpiredEntries:    st.ExpiredEntries,
		ExpirationMinutes: cfg.CacheExpirationMinutes,
		Oldest:            st.Oldest,
		Newest:            st.Newest,
	}
}

func (s *SDK) slots() []categorySlot {
	return []categorySlot{s.hardware, s.system, s.network}
}

func (s *SDK) slot(c Category) (categorySlot, bool) {
	for _, slot := range s.slots() {
		if slot.category() == c {
			return slot, true
		}
	}
	return nil, false
}

// categorySlot is the type-erased view of a category used where all three
// are handled together.
type categorySlot interface {
	category() Category
	capabilities() collector.Capabilities
	collect(ctx context.Context, s *SDK) result.Outcome
	clear()
	StoredAt() (time.Time, bool)
}

// category binds a collector to its cache entry. mu serializes the
// check/collect/store sequence so concurrent requests for the same
// category collect at most once per cache miss.
type category[T any] struct {
	name      Category
	collector collector.Collector[T]

	mu    sync.Mutex
	entry cache.Slot[result.Result[T]]
}

func (c *category[T]) category() Category { return c.name }

func (c *category[T]) capabilities() collector.Capabilities { return c.collector }

func (c *category[T]) collect(ctx context.Context, s *SDK) result.Outcome {
	return c.fetch(ctx, s)
}

func (c *category[T]) clear() { c.entry.Clear() }

func (c *category[T]) StoredAt() (time.Time, bool) { return c.entry.StoredAt() }

// fetch returns a valid cached Success or collects afresh. Only Success
// outcomes are stored, and only while caching is enabled at store time.
func (c *category[T]) fetch(ctx context.Context, s *SDK) result.Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := s.Config()
	log := s.logger.With(zap.String("category", string(c.name)))

	if cfg.CachingEnabled {
		if cached, ok := c.entry.Get(s.clock.Now(), cfg.Expiration()); ok {
			log.Debug("Using cached data")
			return cached
		}
	}

	log.Debug("Collecting fresh data")
	res := c.collector.Collect(ctx)
	if !res.IsSuccess() {
		log.Debug("Collection did not succeed",
			zap.Stringer("status", res.Kind()),
			zap.String("message", res.Message()))
		return res
	}

	s.mu.RLock()
	if s.cfg.CachingEnabled {
		c.entry.Put(res, s.clock.Now())
	}
	s.mu.RUnlock()
	return res
}
