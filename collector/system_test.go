package collector

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
)

func newTestSystemCollector(p platform.Platform, env map[string]string) *SystemCollector {
	c := NewSystemCollector(p, nil)
	c.hostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Hostname: "localhost"}, nil
	}
	c.uptime = func(context.Context) (uint64, error) { return 3600, nil }
	c.getenv = func(key string) string { return env[key] }
	c.local = func() *time.Location { return time.UTC }
	return c
}

func androidFake(level int) *platform.Fake {
	p := platform.NewFake(level)
	p.Props["ro.build.version.release"] = "14"
	p.Props["ro.build.id"] = "UQ1A.240205.004"
	p.Props["ro.build.display.id"] = "UQ1A.240205.004 release-keys"
	p.Props["ro.build.fingerprint"] = "google/panther/panther:14/UQ1A.240205.004/11269751:user/release-keys"
	p.Props["ro.build.host"] = "abfarm-release"
	p.Props["ro.build.user"] = "android-build"
	p.Props["ro.build.version.security_patch"] = "2024-02-05"
	p.Props["ro.bootloader"] = "cloudripper-14.4"
	p.Props["gsm.version.baseband"] = "g5300q-230626-231102-B-11010335"
	p.Props["persist.sys.timezone"] = "Europe/Warsaw"
	p.Props["persist.sys.locale"] = "pl-PL"
	return p
}

func TestSystemCollector_Capabilities(t *testing.T) {
	c := NewSystemCollector(platform.NewFake(14), nil)

	assert.Equal(t, platform.APIIceCreamSandwich, c.MinimumAPILevel())
	assert.Empty(t, c.RequiredPermissions())
	assert.Equal(t, "System configuration and build information", c.Description())
	assert.True(t, c.IsAvailable())
}

func TestSystemCollector_CollectAndroid(t *testing.T) {
	p := androidFake(34)
	p.Commands["uname -r"] = "5.10.177-android13-4\n"
	p.Commands["getenforce"] = "Enforcing\n"
	p.Commands["settings get global development_settings_enabled"] = "1"
	p.Commands["settings get global adb_enabled"] = "0"
	p.Commands["dumpsys package com.google.android.gms"] = "Packages:\n    versionCode=240615038 minSdk=31 targetSdk=34\n    versionName=24.06.15 (190400-606717066)\n"
	p.Commands["pm list packages"] = "package:com.android.chrome\npackage:com.google.android.gms\n"

	c := newTestSystemCollector(p, nil)
	info, ok := c.Collect(context.Background()).Value()
	require.True(t, ok)

	assert.Equal(t, "14 (API 34)", info.OSVersion)
	assert.Equal(t, 34, info.APILevel)
	assert.Equal(t, "UQ1A.240205.004", info.BuildID)
	assert.Equal(t, "UQ1A.240205.004 release-keys", info.BuildDisplay)
	assert.Equal(t, "abfarm-release", info.BuildHost)
	assert.Equal(t, "android-build", info.BuildUser)
	require.NotNil(t, info.SecurityPatchLevel)
	assert.Equal(t, "2024-02-05", *info.SecurityPatchLevel)
	require.NotNil(t, info.BootloaderVersion)
	assert.Equal(t, "cloudripper-14.4", *info.BootloaderVersion)
	require.NotNil(t, info.Baseband)
	require.NotNil(t, info.KernelVersion)
	assert.Equal(t, "5.10.177-android13-4", *info.KernelVersion)
	assert.Equal(t, "localhost", info.Hostname)
	assert.Equal(t, "pl-PL", info.Locale)
	assert.Equal(t, "Europe/Warsaw", info.TimeZone)
	assert.Equal(t, int64(3600), info.UptimeSeconds)
	assert.False(t, info.IsRooted)
	assert.True(t, info.DeveloperOptions)
	assert.False(t, info.ADBEnabled)
	assert.Equal(t, "Enforcing", info.SELinuxStatus)
	require.NotNil(t, info.PlayServices)
	assert.Equal(t, "24.06.15 (240615038)", *info.PlayServices)
	assert.False(t, info.IsEmulator)
	assert.Empty(t, info.ContainerType)
}

func TestSystemCollector_SecurityPatchNeedsMarshmallow(t *testing.T) {
	p := androidFake(22)
	c := newTestSystemCollector(p, nil)

	info, ok := c.Collect(context.Background()).Value()
	require.True(t, ok)
	assert.Nil(t, info.SecurityPatchLevel)
	assert.Equal(t, "14 (API 22)", info.OSVersion)
}

func TestSystemCollector_LinuxHost(t *testing.T) {
	p := platform.NewFake(platform.UngatedAPILevel)
	p.PlatformName = "linux"
	p.Files["/etc/os-release"] = "NAME=\"Ubuntu\"\nVERSION_ID=\"22.04\"\nPRETTY_NAME=\"Ubuntu 22.04.4 LTS\"\n"
	p.Files["/proc/version"] = "Linux version 6.5.0-21-generic (buildd@lcy02) #21~22.04.1-Ubuntu SMP"
	p.Files["/sys/class/dmi/id/bios_version"] = "N32ET86W (1.62 )\n"
	p.Files["/proc/1/cgroup"] = "0::/system.slice/docker-3f2a.scope\n"

	c := newTestSystemCollector(p, map[string]string{"LANG": "en_US.UTF-8"})
	c.hostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Hostname: "build-box", VirtualizationRole: "guest"}, nil
	}

	info, ok := c.Collect(context.Background()).Value()
	require.True(t, ok)

	assert.Equal(t, "Ubuntu 22.04.4 LTS", info.OSVersion)
	assert.Equal(t, 0, info.APILevel)
	assert.Equal(t, "22.04", info.BuildID)
	assert.Equal(t, "build-box", info.Hostname)
	assert.Equal(t, "en_US", info.Locale)
	assert.Equal(t, "UTC", info.TimeZone)
	require.NotNil(t, info.KernelVersion)
	assert.Equal(t, "6.5.0-21-generic", *info.KernelVersion)
	require.NotNil(t, info.BootloaderVersion)
	assert.Equal(t, "N32ET86W (1.62 )", *info.BootloaderVersion)
	assert.Nil(t, info.SecurityPatchLevel)
	assert.Nil(t, info.Baseband)
	assert.Nil(t, info.PlayServices)
	assert.Equal(t, seLinuxNotAvailable, info.SELinuxStatus)
	assert.True(t, info.IsEmulator)
	assert.Equal(t, "docker", info.ContainerType)
}

func TestSystemCollector_HostInfoFailureDegrades(t *testing.T) {
	p := androidFake(30)
	c := newTestSystemCollector(p, nil)
	c.hostInfo = func(context.Context) (*host.InfoStat, error) { return nil, errors.New("no host") }
	c.uptime = func(context.Context) (uint64, error) { return 0, errors.New("no uptime") }

	info, ok := c.Collect(context.Background()).Value()
	require.True(t, ok)
	assert.NotEmpty(t, info.Hostname)
	assert.Equal(t, int64(-1), info.UptimeSeconds)
}

func TestEnvironmentProbe_Rooted(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *platform.Fake)
		want  bool
	}{
		{"clean", func(*platform.Fake) {}, false},
		{"su binary", func(p *platform.Fake) { p.Files["/system/xbin/su"] = "" }, true},
		{"magisk installed", func(p *platform.Fake) {
			p.Commands["pm list packages"] = "package:com.topjohnwu.magisk\n"
		}, true},
		{"su on path", func(p *platform.Fake) { p.Commands["which su"] = "/sbin/su" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := platform.NewFake(30)
			tt.setup(p)
			probe := newEnvironmentProbe(p, zap.NewNop(), func(string) string { return "" })
			assert.Equal(t, tt.want, probe.isRooted(context.Background()))
		})
	}
}

func TestEnvironmentProbe_RootedOnLinuxUsesEUID(t *testing.T) {
	p := platform.NewFake(platform.UngatedAPILevel)
	p.PlatformName = "linux"
	p.Files["/system/xbin/su"] = ""
	probe := newEnvironmentProbe(p, zap.NewNop(), nil)

	probe.geteuid = func() int { return 1000 }
	assert.False(t, probe.isRooted(context.Background()))
	probe.geteuid = func() int { return 0 }
	assert.True(t, probe.isRooted(context.Background()))
}

func TestEnvironmentProbe_SELinuxFallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		exists  bool
		want    string
	}{
		{name: "enforcing", content: "1\n", exists: true, want: "Enforcing"},
		{name: "permissive", content: "0", exists: true, want: "Permissive"},
		{name: "garbage", content: "x", exists: true, want: "Unknown"},
		{name: "unreadable", err: fs.ErrPermission, want: "Unknown"},
		{name: "missing", want: "Not Available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := platform.NewFake(30)
			if tt.exists {
				p.Files[seLinuxEnforceFile] = tt.content
			}
			if tt.err != nil {
				p.FileErrors[seLinuxEnforceFile] = tt.err
			}
			probe := newEnvironmentProbe(p, zap.NewNop(), nil)
			assert.Equal(t, tt.want, probe.seLinuxStatus(context.Background()))
		})
	}
}

func TestEnvironmentProbe_KernelVersionFallbacks(t *testing.T) {
	p := platform.NewFake(30)
	probe := newEnvironmentProbe(p, zap.NewNop(), nil)
	probe.uname = func() string { return "6.1.0-uname" }

	p.Files["/proc/version"] = "Linux version 4.14.190-perf+ (builder@host) #1 SMP PREEMPT"
	v := probe.kernelVersion(context.Background())
	require.NotNil(t, v)
	assert.Equal(t, "4.14.190-perf+", *v)

	delete(p.Files, "/proc/version")
	v = probe.kernelVersion(context.Background())
	require.NotNil(t, v)
	assert.Equal(t, "6.1.0-uname", *v)

	probe.uname = func() string { return "" }
	assert.Nil(t, probe.kernelVersion(context.Background()))
}

func TestEnvironmentProbe_ADBFromService(t *testing.T) {
	p := platform.NewFake(30)
	p.Props["init.svc.adbd"] = "running"
	probe := newEnvironmentProbe(p, zap.NewNop(), nil)

	assert.True(t, probe.adbEnabled(context.Background()))
	assert.False(t, probe.globalSettingEnabled(context.Background(), "development_settings_enabled"))
}

func TestEnvironmentProbe_Emulator(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  bool
	}{
		{"physical", map[string]string{"ro.build.fingerprint": "google/panther/panther:14", "ro.hardware": "panther"}, false},
		{"generic fingerprint", map[string]string{"ro.build.fingerprint": "generic/sdk_gphone_x86/generic_x86:11"}, true},
		{"ranchu", map[string]string{"ro.hardware": "ranchu"}, true},
		{"genymotion", map[string]string{"ro.product.manufacturer": "Genymotion"}, true},
		{"generic brand and device", map[string]string{"ro.product.brand": "generic_x86", "ro.product.device": "generic_x86"}, true},
		{"generic brand only", map[string]string{"ro.product.brand": "generic"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := platform.NewFake(30)
			for k, v := range tt.props {
				p.Props[k] = v
			}
			probe := newEnvironmentProbe(p, zap.NewNop(), nil)
			assert.Equal(t, tt.want, probe.isEmulator(context.Background(), nil))
		})
	}
}

func TestEnvironmentProbe_ContainerType(t *testing.T) {
	p := platform.NewFake(platform.UngatedAPILevel)
	p.PlatformName = "linux"

	probe := newEnvironmentProbe(p, zap.NewNop(), func(key string) string {
		if key == "CONTAINER" {
			return "Podman"
		}
		return ""
	})
	assert.Equal(t, "podman", probe.containerType())

	probe = newEnvironmentProbe(p, zap.NewNop(), func(string) string { return "" })
	assert.Equal(t, "", probe.containerType())

	p.Files["/.dockerenv"] = ""
	assert.Equal(t, "docker", probe.containerType())
}

func TestParseCgroup(t *testing.T) {
	assert.Equal(t, "docker", parseCgroup("12:pids:/docker/abc123"))
	assert.Equal(t, "docker", parseCgroup("0::/system.slice/containerd.service"))
	assert.Equal(t, "lxc", parseCgroup("2:cpu:/lxc/web01"))
	assert.Equal(t, "podman", parseCgroup("0::/machine.slice/libpod-9f1.scope"))
	assert.Equal(t, "", parseCgroup("0::/init.scope"))
}

func TestParsePackageVersion(t *testing.T) {
	name, code := parsePackageVersion("  versionCode=1234 minSdk=21\n  versionName=1.2.3\n  versionName=9.9.9")
	assert.Equal(t, "1.2.3", name)
	assert.Equal(t, "1234", code)

	name, code = parsePackageVersion("Unable to find package")
	assert.Empty(t, name)
	assert.Empty(t, code)
}

func TestSystemCollector_Locale(t *testing.T) {
	p := platform.NewFake(30)
	p.Props["ro.product.locale"] = "en-US"

	c := newTestSystemCollector(p, map[string]string{"LANG": "C"})
	assert.Equal(t, "en-US", c.locale(context.Background()))

	c = newTestSystemCollector(platform.NewFake(30), nil)
	assert.Equal(t, models.Unknown, c.locale(context.Background()))
}
