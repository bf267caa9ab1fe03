// System collector: OS build, locale, uptime and security state.
// Reads Android build properties when present and falls back to
// /etc/os-release and gopsutil host info on other Linux systems.
package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// SystemCollector collects system configuration and build information.
// It needs no permissions.
type SystemCollector struct {
	base

	hostInfo func(ctx context.Context) (*host.InfoStat, error)
	uptime   func(ctx context.Context) (uint64, error)
	getenv   func(key string) string
	local    func() *time.Location
}

// NewSystemCollector creates a system collector.
func NewSystemCollector(p platform.Platform, logger *zap.Logger) *SystemCollector {
	return &SystemCollector{
		base:     newBase(p, logger, platform.APIIceCreamSandwich, "System configuration and build information"),
		hostInfo: host.InfoWithContext,
		uptime:   host.UptimeWithContext,
		getenv:   os.Getenv,
		local:    func() *time.Location { return time.Local },
	}
}

// Collect gathers the system information.
func (c *SystemCollector) Collect(ctx context.Context) result.Result[models.SystemInfo] {
	return safeExecute(&c.base, func() (models.SystemInfo, error) {
		info, err := c.hostInfo(ctx)
		if err != nil {
			c.logger.Debug("Host info unavailable", zap.Error(err))
			info = &host.InfoStat{}
		}

		prop := func(key string) string {
			return strings.TrimSpace(c.platform.Property(ctx, key))
		}
		osRelease := c.osRelease()
		probe := newEnvironmentProbe(c.platform, c.logger, c.getenv)

		return models.SystemInfo{
			CheckedAt:          c.now(),
			OSVersion:          c.osVersion(ctx, osRelease, info),
			APILevel:           c.apiLevel(),
			BuildID:            firstNonEmpty(prop("ro.build.id"), osRelease["BUILD_ID"], osRelease["VERSION_ID"], models.Unknown),
			BuildDisplay:       firstNonEmpty(prop("ro.build.display.id"), osRelease["VERSION"], models.Unknown),
			Fingerprint:        firstNonEmpty(prop("ro.build.fingerprint"), info.HostID, models.Unknown),
			BuildHost:          firstNonEmpty(prop("ro.build.host"), models.Unknown),
			BuildUser:          firstNonEmpty(prop("ro.build.user"), models.Unknown),
			SecurityPatchLevel: c.securityPatch(ctx),
			BootloaderVersion:  c.bootloader(ctx),
			Baseband:           optional(prop("gsm.version.baseband")),
			KernelVersion:      probe.kernelVersion(ctx),
			Hostname:           firstNonEmpty(info.Hostname, hostname(), models.Unknown),
			Locale:             c.locale(ctx),
			TimeZone:           c.timeZone(ctx),
			UptimeSeconds:      c.uptimeSeconds(ctx),
			IsRooted:           probe.isRooted(ctx),
			DeveloperOptions:   probe.globalSettingEnabled(ctx, "development_settings_enabled"),
			ADBEnabled:         probe.adbEnabled(ctx),
			SELinuxStatus:      probe.seLinuxStatus(ctx),
			PlayServices:       probe.playServicesVersion(ctx),
			IsEmulator:         probe.isEmulator(ctx, info),
			ContainerType:      probe.containerType(),
		}, nil
	})
}

// osVersion formats "<release> (API n)" on Android, the os-release pretty
// name elsewhere.
func (c *SystemCollector) osVersion(ctx context.Context, osRelease map[string]string, info *host.InfoStat) string {
	if release := c.platform.Property(ctx, "ro.build.version.release"); release != "" {
		return fmt.Sprintf("%s (API %d)", release, c.platform.APILevel())
	}
	if pretty := osRelease["PRETTY_NAME"]; pretty != "" {
		return pretty
	}
	if info.Platform != "" {
		return strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	}
	return models.Unknown
}

// apiLevel returns the Android SDK level, or 0 on hosts without one.
func (c *SystemCollector) apiLevel() int {
	level := c.platform.APILevel()
	if level == platform.UngatedAPILevel {
		return 0
	}
	return level
}

func (c *SystemCollector) osRelease() map[string]string {
	for _, path := range []string{"/etc/os-release", "/usr/lib/os-release"} {
		if data, err := c.platform.ReadFile(path); err == nil {
			return platform.ParseKeyValue(string(data))
		}
	}
	return map[string]string{}
}

// securityPatch is only reported from Marshmallow on.
func (c *SystemCollector) securityPatch(ctx context.Context) *string {
	if c.platform.APILevel() < platform.APIMarshmallow {
		return nil
	}
	return optional(strings.TrimSpace(c.platform.Property(ctx, "ro.build.version.security_patch")))
}

func (c *SystemCollector) bootloader(ctx context.Context) *string {
	bl := strings.TrimSpace(c.platform.Property(ctx, "ro.bootloader"))
	if bl == "" || strings.EqualFold(bl, "unknown") {
		if platform.IsAndroid(c.platform) {
			return nil
		}
		if data, err := c.platform.ReadFile(dmiDir + "bios_version"); err == nil {
			bl = cleanDMI(string(data))
		}
	}
	return optional(bl)
}

// locale reads the POSIX locale variables, then the Android locale
// properties.
func (c *SystemCollector) locale(ctx context.Context) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := c.getenv(key); v != "" && v != "C" && v != "POSIX" {
			return strings.SplitN(v, ".", 2)[0]
		}
	}
	return firstNonEmpty(
		strings.TrimSpace(c.platform.Property(ctx, "persist.sys.locale")),
		strings.TrimSpace(c.platform.Property(ctx, "ro.product.locale")),
		models.Unknown,
	)
}

func (c *SystemCollector) timeZone(ctx context.Context) string {
	if tz := strings.TrimSpace(c.platform.Property(ctx, "persist.sys.timezone")); tz != "" {
		return tz
	}
	if tz := c.getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if data, err := c.platform.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}
	if loc := c.local(); loc != nil && loc.String() != "Local" {
		return loc.String()
	}
	return models.Unknown
}

// uptimeSeconds returns seconds since boot, or -1.
func (c *SystemCollector) uptimeSeconds(ctx context.Context) int64 {
	up, err := c.uptime(ctx)
	if err != nil {
		c.logger.Debug("Uptime unavailable", zap.Error(err))
		return -1
	}
	return int64(up)
}

func hostname() string {
	name, _ := os.Hostname()
	return name
}

// parseBoolProp interprets Android boolean properties ("1", "true").
func parseBoolProp(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
