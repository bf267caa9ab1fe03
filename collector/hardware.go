// Hardware collector: device identity, CPU, RAM, storage and sensors.
// Uses build properties on Android, SMBIOS/DMI elsewhere, and gopsutil for
// memory and CPU metrics.
package collector

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// androidDataDir holds apps and user data on Android.
const androidDataDir = "/data"

// HardwareCollector collects hardware specs. It needs no permissions.
type HardwareCollector struct {
	base

	// gopsutil entry points, replaceable in tests.
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	cpuInfo       func(ctx context.Context) ([]cpu.InfoStat, error)
	cpuCounts     func(ctx context.Context, logical bool) (int, error)
	temperatures  func(ctx context.Context) ([]host.TemperatureStat, error)
	storage       func(path string) (total, available int64, err error)
	identity      func() boardIdentity
}

// NewHardwareCollector creates a hardware collector.
func NewHardwareCollector(p platform.Platform, logger *zap.Logger) *HardwareCollector {
	c := &HardwareCollector{
		base:          newBase(p, logger, platform.APIJellyBean, "Hardware specs"),
		virtualMemory: mem.VirtualMemoryWithContext,
		cpuInfo:       cpu.InfoWithContext,
		cpuCounts:     cpu.CountsWithContext,
		temperatures:  host.SensorsTemperaturesWithContext,
		storage:       statStorage,
	}
	c.identity = func() boardIdentity { return readBoardIdentity(p) }
	return c
}

// Collect gathers the hardware specs.
func (c *HardwareCollector) Collect(ctx context.Context) result.Result[models.HardwareInfo] {
	return safeExecute(&c.base, func() (models.HardwareInfo, error) {
		manufacturer, model, device, board := c.deviceIdentity(ctx)
		totalRAM, availableRAM := c.memory(ctx)
		totalStorage, availableStorage := c.storageStats()
		cpuModel, cores := c.cpuDetails(ctx)

		return models.HardwareInfo{
			CheckedAt:             c.now(),
			Manufacturer:          manufacturer,
			Model:                 model,
			Device:                device,
			Board:                 board,
			CPUArchitecture:       c.cpuArchitecture(ctx),
			SupportedABIs:         c.supportedABIs(ctx),
			CPUModel:              cpuModel,
			CPUCores:              cores,
			TotalRAMBytes:         totalRAM,
			AvailableRAMBytes:     availableRAM,
			TotalStorageBytes:     totalStorage,
			AvailableStorageBytes: availableStorage,
			Sensors:               c.sensors(ctx),
		}, nil
	})
}

// deviceIdentity prefers Android build properties and falls back to the
// SMBIOS/DMI board identity.
func (c *HardwareCollector) deviceIdentity(ctx context.Context) (manufacturer, model, device, board string) {
	prop := func(key string) string {
		return strings.TrimSpace(c.platform.Property(ctx, key))
	}
	manufacturer = prop("ro.product.manufacturer")
	model = prop("ro.product.model")
	device = prop("ro.product.device")
	board = firstNonEmpty(prop("ro.product.board"), prop("ro.board.platform"))

	if manufacturer == "" || model == "" || board == "" {
		id := c.identity()
		manufacturer = firstNonEmpty(manufacturer, id.Manufacturer)
		model = firstNonEmpty(model, id.Product)
		board = firstNonEmpty(board, id.Board)
		device = firstNonEmpty(device, id.Family)
	}

	return firstNonEmpty(manufacturer, models.Unknown),
		firstNonEmpty(model, models.Unknown),
		firstNonEmpty(device, models.Unknown),
		firstNonEmpty(board, models.Unknown)
}

func (c *HardwareCollector) cpuArchitecture(ctx context.Context) string {
	if abi := strings.TrimSpace(c.platform.Property(ctx, "ro.product.cpu.abi")); abi != "" {
		return abi
	}
	return goarchToABI(runtime.GOARCH)
}

func (c *HardwareCollector) supportedABIs(ctx context.Context) []string {
	if list := c.platform.Property(ctx, "ro.product.cpu.abilist"); list != "" {
		return splitList(list)
	}
	// Pre-Lollipop devices only expose the primary and secondary ABI.
	var abis []string
	for _, key := range []string{"ro.product.cpu.abi", "ro.product.cpu.abi2"} {
		if abi := strings.TrimSpace(c.platform.Property(ctx, key)); abi != "" {
			abis = append(abis, abi)
		}
	}
	if len(abis) == 0 {
		abis = []string{goarchToABI(runtime.GOARCH)}
	}
	return abis
}

func (c *HardwareCollector) cpuDetails(ctx context.Context) (string, int) {
	modelName := models.Unknown
	if infos, err := c.cpuInfo(ctx); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		modelName = infos[0].ModelName
	} else if hw := c.platform.Property(ctx, "ro.hardware"); hw != "" {
		modelName = hw
	}

	cores, err := c.cpuCounts(ctx, true)
	if err != nil {
		c.logger.Debug("CPU count unavailable", zap.Error(err))
		cores = -1
	}
	return modelName, cores
}

// memory returns total and available RAM, or -1 for values that could
// not be read.
func (c *HardwareCollector) memory(ctx context.Context) (int64, int64) {
	v, err := c.virtualMemory(ctx)
	if err != nil || v == nil {
		c.logger.Debug("Memory stats unavailable", zap.Error(err))
		return -1, -1
	}
	return int64(v.Total), int64(v.Available)
}

// storageStats reports the internal storage where apps and user data live:
// /data on Android, the root filesystem elsewhere.
func (c *HardwareCollector) storageStats() (int64, int64) {
	path := "/"
	if c.platform.FileExists(androidDataDir) {
		path = androidDataDir
	}
	total, available, err := c.storage(path)
	if err != nil {
		c.logger.Debug("Storage stats unavailable",
			zap.String("path", path),
			zap.Error(err))
		return -1, -1
	}
	return total, available
}

// goarchToABI maps a Go architecture name to the Android ABI naming.
func goarchToABI(goarch string) string {
	switch goarch {
	case "arm64":
		return "arm64-v8a"
	case "arm":
		return "armeabi-v7a"
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
