package deviceinfo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalis-app/deviceinfo/internal/clock"
	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stubCollector returns its results in order, repeating the last one.
type stubCollector[T any] struct {
	results     []result.Result[T]
	calls       atomic.Int32
	available   bool
	permissions []platform.Permission
	delay       time.Duration
}

func newStub[T any](results ...result.Result[T]) *stubCollector[T] {
	return &stubCollector[T]{results: results, available: true}
}

func (s *stubCollector[T]) Collect(context.Context) result.Result[T] {
	n := int(s.calls.Add(1))
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.results[min(n, len(s.results))-1]
}

func (s *stubCollector[T]) IsAvailable() bool                          { return s.available }
func (s *stubCollector[T]) RequiredPermissions() []platform.Permission { return s.permissions }
func (s *stubCollector[T]) MinimumAPILevel() int                       { return 14 }
func (s *stubCollector[T]) Description() string                        { return "stub" }

type fixture struct {
	sdk      *SDK
	clock    *clock.FakeClock
	platform *platform.Fake
	hardware *stubCollector[models.HardwareInfo]
	system   *stubCollector[models.SystemInfo]
	network  *stubCollector[models.NetworkInfo]
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.Fake(epoch),
		platform: platform.NewFake(30),
		hardware: newStub(result.Success(models.HardwareInfo{Model: "Pixel 7"})),
		system:   newStub(result.Success(models.SystemInfo{OSVersion: "14 (API 34)"})),
		network:  newStub(result.Success(models.NetworkInfo{ConnectionType: "WiFi"})),
	}
	f.network.permissions = []platform.Permission{platform.AccessNetworkState, platform.AccessWifiState}
	opts = append([]Option{
		WithClock(f.clock),
		WithHardwareCollector(f.hardware),
		WithSystemCollector(f.system),
		WithNetworkCollector(f.network),
	}, opts...)
	f.sdk = New(f.platform, cfg, opts...)
	return f
}

func TestCollect_FirstCallCollectsFresh(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	for _, c := range Categories() {
		assert.False(t, f.sdk.IsCached(c))
		out := f.sdk.Collect(context.Background(), c)
		assert.True(t, out.IsSuccess())
		assert.True(t, f.sdk.IsCached(c))
	}
	assert.EqualValues(t, 1, f.hardware.calls.Load())
	assert.EqualValues(t, 1, f.system.calls.Load())
	assert.EqualValues(t, 1, f.network.calls.Load())
}

func TestCollect_CacheHitWithinExpiration(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.hardware.results = append(f.hardware.results, result.Success(models.HardwareInfo{Model: "second"}))

	first, ok := f.sdk.HardwareInfo(context.Background())
	require.True(t, ok)

	f.clock.Advance(29 * time.Minute)
	second, ok := f.sdk.HardwareInfo(context.Background())
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, "Pixel 7", second.Model)
	assert.EqualValues(t, 1, f.hardware.calls.Load())
}

func TestCollect_ExpiryBoundary(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	f.sdk.Collect(ctx, CategorySystem)
	f.clock.Advance(30 * time.Minute)
	f.sdk.Collect(ctx, CategorySystem)
	assert.EqualValues(t, 1, f.system.calls.Load(), "age equal to expiration is still valid")

	f.clock.Advance(time.Second)
	assert.False(t, f.sdk.IsCached(CategorySystem))
	f.sdk.Collect(ctx, CategorySystem)
	assert.EqualValues(t, 2, f.system.calls.Load())
	assert.True(t, f.sdk.IsCached(CategorySystem))
}

func TestCollect_NonSuccessNeverCached(t *testing.T) {
	outcomes := map[string]result.Result[models.HardwareInfo]{
		"error":             result.Failure[models.HardwareInfo](errors.New("boom"), "Failed to collect Hardware specs"),
		"not available":     result.Unavailable[models.HardwareInfo](),
		"permission denied": result.Denied[models.HardwareInfo](),
	}

	for name, outcome := range outcomes {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.hardware.results = []result.Result[models.HardwareInfo]{outcome}

			f.sdk.Collect(context.Background(), CategoryHardware)
			f.sdk.Collect(context.Background(), CategoryHardware)

			assert.EqualValues(t, 2, f.hardware.calls.Load())
			assert.False(t, f.sdk.IsCached(CategoryHardware))
		})
	}
}

func TestCollect_CachingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CachingEnabled = false
	f := newFixture(t, cfg)

	f.sdk.Collect(context.Background(), CategoryNetwork)
	f.sdk.Collect(context.Background(), CategoryNetwork)

	assert.EqualValues(t, 2, f.network.calls.Load())
	assert.False(t, f.sdk.IsCached(CategoryNetwork))
	assert.Equal(t, 0, f.sdk.CacheStats().TotalEntries)
}

func TestCollect_NegativeExpirationNeverHits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheExpirationMinutes = -1
	f := newFixture(t, cfg)

	f.sdk.Collect(context.Background(), CategoryHardware)
	f.sdk.Collect(context.Background(), CategoryHardware)

	assert.EqualValues(t, 2, f.hardware.calls.Load())
	assert.Equal(t, 1, f.sdk.CacheStats().ExpiredEntries)
}

func TestCollect_UnknownCategory(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	out := f.sdk.Collect(context.Background(), Category("unknown"))

	assert.Equal(t, result.KindError, out.Kind())
	assert.Equal(t, "Category 'unknown' not found", out.Message())
	assert.ErrorIs(t, out.Err(), ErrUnknownCategory)
	assert.Contains(t, out.Err().Error(), "unknown")
	assert.False(t, f.sdk.IsCached(Category("unknown")))
}

func TestUpdateConfig_DisablingCachingClears(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.sdk.CollectAll(context.Background())
	require.Equal(t, 3, f.sdk.CacheStats().TotalEntries)

	cfg := DefaultConfig()
	cfg.CachingEnabled = false
	f.sdk.UpdateConfig(cfg)

	assert.Equal(t, cfg, f.sdk.Config())
	for _, c := range Categories() {
		assert.False(t, f.sdk.IsCached(c), c)
	}
	assert.Equal(t, 0, f.sdk.CacheStats().TotalEntries)
}

func TestUpdateConfig_KeepsCacheWhenEnabled(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.sdk.CollectAll(context.Background())

	cfg := DefaultConfig()
	cfg.CacheExpirationMinutes = 5
	f.sdk.UpdateConfig(cfg)
	assert.True(t, f.sdk.IsCached(CategoryHardware))

	f.clock.Advance(6 * time.Minute)
	assert.False(t, f.sdk.IsCached(CategoryHardware), "new expiration applies to existing entries")
}

func TestClearCache(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.sdk.CollectAll(context.Background())

	f.sdk.ClearCategory(CategorySystem)
	assert.True(t, f.sdk.IsCached(CategoryHardware))
	assert.False(t, f.sdk.IsCached(CategorySystem))
	f.sdk.ClearCategory(Category("bogus"))

	f.sdk.ClearCache()
	for _, c := range Categories() {
		assert.False(t, f.sdk.IsCached(c), c)
	}
}

func TestCollectAll_OmitsNonSuccessByDefault(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.network.results = []result.Result[models.NetworkInfo]{result.Denied[models.NetworkInfo]()}
	f.hardware.results = []result.Result[models.HardwareInfo]{
		result.Failure[models.HardwareInfo](errors.New("boom"), "Failed to collect Hardware specs"),
	}

	report := f.sdk.CollectAll(context.Background())

	assert.Equal(t, []Category{CategorySystem}, report.Categories())
	assert.False(t, report.HasErrors())
	_, ok := report.Network()
	assert.False(t, ok)
	sys, ok := report.System()
	require.True(t, ok)
	assert.Equal(t, "14 (API 34)", sys.OSVersion)
	assert.Equal(t, epoch, report.GeneratedAt())
}

func TestCollectAll_IncludeUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeUnavailable = true
	f := newFixture(t, cfg)
	f.network.results = []result.Result[models.NetworkInfo]{result.Denied[models.NetworkInfo]()}
	f.hardware.results = []result.Result[models.HardwareInfo]{
		result.Failure[models.HardwareInfo](errors.New("boom"), "Failed to collect Hardware specs"),
	}

	report := f.sdk.CollectAll(context.Background())

	assert.Equal(t, Categories(), report.Categories())
	assert.True(t, report.HasErrors())
	assert.Equal(t, []string{"Failed to collect Hardware specs"}, report.Errors())

	out, ok := report.Result(CategoryNetwork)
	require.True(t, ok)
	assert.Equal(t, result.KindPermissionDenied, out.Kind())
	_, ok = report.Hardware()
	assert.False(t, ok)
}

func TestCollectAll_SecondPassServedFromCache(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	first := f.sdk.CollectAll(context.Background())
	f.clock.Advance(time.Minute)
	second := f.sdk.CollectAll(context.Background())

	assert.Equal(t, first.All(), second.All())
	assert.EqualValues(t, 1, f.hardware.calls.Load())
	assert.EqualValues(t, 1, f.system.calls.Load())
	assert.EqualValues(t, 1, f.network.calls.Load())
	assert.Equal(t, epoch.Add(time.Minute), second.GeneratedAt())
}

func TestTypedAccessorsCollapseNonSuccess(t *testing.T) {
	outcomes := []result.Result[models.HardwareInfo]{
		result.Failure[models.HardwareInfo](errors.New("boom"), "failed"),
		result.Unavailable[models.HardwareInfo](),
		result.Denied[models.HardwareInfo](),
	}
	for _, outcome := range outcomes {
		t.Run(outcome.Kind().String(), func(t *testing.T) {
			f := newFixture(t, DefaultConfig())
			f.hardware.results = []result.Result[models.HardwareInfo]{outcome}

			info, ok := f.sdk.HardwareInfo(context.Background())
			assert.False(t, ok)
			assert.Equal(t, models.HardwareInfo{}, info)
		})
	}

	f := newFixture(t, DefaultConfig())
	sys, ok := f.sdk.SystemInfo(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "14 (API 34)", sys.OSVersion)
	nw, ok := f.sdk.NetworkInfo(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "WiFi", nw.ConnectionType)
}

func TestPermissionIntrospection(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.system.available = false

	assert.Equal(t, map[Category][]platform.Permission{
		CategoryNetwork: {platform.AccessNetworkState, platform.AccessWifiState},
	}, f.sdk.RequiredPermissions())

	assert.Equal(t, map[Category][]platform.Permission{
		CategoryNetwork: {platform.AccessNetworkState, platform.AccessWifiState},
	}, f.sdk.MissingPermissions())

	f.platform.Grant(platform.AccessNetworkState)
	assert.Equal(t, map[Category][]platform.Permission{
		CategoryNetwork: {platform.AccessWifiState},
	}, f.sdk.MissingPermissions())

	f.platform.Grant(platform.AccessWifiState)
	assert.Empty(t, f.sdk.MissingPermissions())

	assert.Equal(t, map[Category]bool{
		CategoryHardware: true,
		CategorySystem:   false,
		CategoryNetwork:  true,
	}, f.sdk.AvailableCollectors())
}

func TestCacheStats(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	empty := f.sdk.CacheStats()
	assert.Equal(t, CacheStats{ExpirationMinutes: 30}, empty)

	f.sdk.Collect(ctx, CategoryHardware)
	f.clock.Advance(20 * time.Minute)
	f.sdk.Collect(ctx, CategorySystem)
	f.clock.Advance(15 * time.Minute)

	st := f.sdk.CacheStats()
	assert.Equal(t, 2, st.TotalEntries)
	assert.Equal(t, 1, st.ValidEntries)
	assert.Equal(t, 1, st.ExpiredEntries)
	assert.Equal(t, 30, st.ExpirationMinutes)
	assert.Equal(t, epoch, st.Oldest)
	assert.Equal(t, epoch.Add(20*time.Minute), st.Newest)
}

func TestCollect_ConcurrentRequestsCollectOnce(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.hardware.delay = 10 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := f.sdk.HardwareInfo(context.Background())
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, f.hardware.calls.Load())
}

func TestLogging_GatedByConfigLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, DefaultConfig(), WithLogger(zap.New(core)))

	f.sdk.Collect(context.Background(), CategoryHardware)
	assert.Zero(t, logs.FilterMessage("Collecting fresh data").Len())

	cfg := DefaultConfig()
	cfg.LogLevel = LogLevelDebug
	f.sdk.UpdateConfig(cfg)
	f.sdk.Collect(context.Background(), CategoryHardware)
	f.sdk.Collect(context.Background(), CategorySystem)

	assert.Equal(t, 1, logs.FilterMessage("Using cached data").Len())
	assert.Equal(t, 1, logs.FilterMessage("Collecting fresh data").Len())

	cfg.LogLevel = LogLevelNone
	f.sdk.UpdateConfig(cfg)
	before := logs.Len()
	f.sdk.Collect(context.Background(), Category("unknown"))
	assert.Equal(t, before, logs.Len())
}

// countingPlatform counts property reads so tests can tell whether the
// collectors touched the platform.
type countingPlatform struct {
	*platform.Fake
	reads atomic.Int32
}

func (c *countingPlatform) Property(ctx context.Context, key string) string {
	c.reads.Add(1)
	return c.Fake.Property(ctx, key)
}

func TestScenario_StockDeviceDefaultConfig(t *testing.T) {
	fake := platform.NewFake(34)
	fake.Props["ro.product.manufacturer"] = "Google"
	fake.Props["ro.product.model"] = "Pixel 8"
	fake.Props["ro.build.version.release"] = "14"
	p := &countingPlatform{Fake: fake}

	sdk := New(p, DefaultConfig(), WithClock(clock.Fake(epoch)))

	first := sdk.CollectAll(context.Background())
	hw, ok := first.Hardware()
	require.True(t, ok)
	assert.Equal(t, "Pixel 8", hw.Model)
	sys, ok := first.System()
	require.True(t, ok)
	assert.Equal(t, "14 (API 34)", sys.OSVersion)
	assert.True(t, sdk.IsCached(CategoryHardware))
	assert.True(t, sdk.IsCached(CategorySystem))

	reads := p.reads.Load()
	second := sdk.CollectAll(context.Background())
	assert.Equal(t, reads, p.reads.Load(), "second pass must not query the platform")

	hw2, _ := second.Hardware()
	sys2, _ := second.System()
	assert.Equal(t, hw, hw2)
	assert.Equal(t, sys, sys2)
}
