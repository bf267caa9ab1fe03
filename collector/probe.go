package collector

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo/platform"
)

// SELinux states reported when getenforce is missing.
const (
	seLinuxEnforcing    = "Enforcing"
	seLinuxPermissive   = "Permissive"
	seLinuxUnknown      = "Unknown"
	seLinuxNotAvailable = "Not Available"

	seLinuxEnforceFile = "/sys/fs/selinux/enforce"
	playServicesPkg    = "com.google.android.gms"
)

// suPaths are locations where rooting tools install the su binary.
var suPaths = []string{
	"/system/app/Superuser.apk",
	"/sbin/su",
	"/system/bin/su",
	"/system/xbin/su",
	"/data/local/xbin/su",
	"/data/local/bin/su",
	"/system/sd/xbin/su",
	"/system/bin/failsafe/su",
	"/data/local/su",
}

// rootPackages are root management apps.
var rootPackages = []string{
	"com.noshufou.android.su",
	"com.noshufou.android.su.elite",
	"eu.chainfire.supersu",
	"com.koushikdutta.superuser",
	"com.thirdparty.superuser",
	"com.yellowes.su",
	"com.topjohnwu.magisk",
}

// environmentProbe answers the security and environment questions of the
// system collector. Every check degrades to a negative answer on failure.
type environmentProbe struct {
	platform platform.Platform
	logger   *zap.Logger
	getenv   func(string) string
	geteuid  func() int
	uname    func() string
}

func newEnvironmentProbe(p platform.Platform, logger *zap.Logger, getenv func(string) string) *environmentProbe {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &environmentProbe{platform: p, logger: logger, getenv: getenv, geteuid: os.Geteuid, uname: kernelRelease}
}

// kernelVersion runs `uname -r`, falling back to the third token of
// /proc/version ("Linux version 5.10.43 ...") and then to uname(2).
func (e *environmentProbe) kernelVersion(ctx context.Context) *string {
	if out, err := e.platform.Run(ctx, "uname", "-r"); err == nil && out != "" {
		return optional(out)
	}
	if data, err := e.platform.ReadFile("/proc/version"); err == nil {
		if v := parseProcVersion(string(data)); v != "" {
			return optional(v)
		}
	}
	return optional(e.uname())
}

func parseProcVersion(content string) string {
	fields := strings.Fields(content)
	if len(fields) > 2 {
		return fields[2]
	}
	return ""
}

// isRooted combines three heuristics on Android: known su locations,
// installed root management apps, and su on PATH. Desktop Linux ships su,
// so there it only reports whether the process runs as uid 0.
func (e *environmentProbe) isRooted(ctx context.Context) bool {
	if !platform.IsAndroid(e.platform) {
		return e.geteuid() == 0
	}
	for _, path := range suPaths {
		if e.platform.FileExists(path) {
			e.logger.Debug("Root indicator found", zap.String("path", path))
			return true
		}
	}
	if e.hasRootPackage(ctx) {
		return true
	}
	if out, err := e.platform.Run(ctx, "which", "su"); err == nil && out != "" {
		return true
	}
	return false
}

func (e *environmentProbe) hasRootPackage(ctx context.Context) bool {
	out, err := e.platform.Run(ctx, "pm", "list", "packages")
	if err != nil {
		return false
	}
	installed := parsePackageList(out)
	for _, pkg := range rootPackages {
		if installed[pkg] {
			e.logger.Debug("Root package installed", zap.String("package", pkg))
			return true
		}
	}
	return false
}

// parsePackageList parses `pm list packages` output ("package:<name>").
func parsePackageList(out string) map[string]bool {
	pkgs := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "package:"); ok && name != "" {
			pkgs[name] = true
		}
	}
	return pkgs
}

// globalSettingEnabled reads an integer from the global settings table.
// Missing or unreadable settings count as disabled.
func (e *environmentProbe) globalSettingEnabled(ctx context.Context, name string) bool {
	out, err := e.platform.Run(ctx, "settings", "get", "global", name)
	if err != nil {
		return false
	}
	out = strings.TrimSpace(out)
	return out != "" && out != "0" && out != "null"
}

// adbEnabled checks the adb_enabled setting, then whether adbd is running.
func (e *environmentProbe) adbEnabled(ctx context.Context) bool {
	if e.globalSettingEnabled(ctx, "adb_enabled") {
		return true
	}
	return e.platform.Property(ctx, "init.svc.adbd") == "running"
}

// seLinuxStatus asks getenforce, then reads the enforce flag directly.
func (e *environmentProbe) seLinuxStatus(ctx context.Context) string {
	if out, err := e.platform.Run(ctx, "getenforce"); err == nil {
		if line := firstLine(out); line != "" {
			return line
		}
		return seLinuxUnknown
	}

	if !e.platform.FileExists(seLinuxEnforceFile) {
		return seLinuxNotAvailable
	}
	data, err := e.platform.ReadFile(seLinuxEnforceFile)
	if err != nil {
		return seLinuxUnknown
	}
	switch strings.TrimSpace(string(data)) {
	case "1":
		return seLinuxEnforcing
	case "0":
		return seLinuxPermissive
	default:
		return seLinuxUnknown
	}
}

// playServicesVersion returns "<versionName> (<versionCode>)", or nil when
// Google Play Services is not installed.
func (e *environmentProbe) playServicesVersion(ctx context.Context) *string {
	out, err := e.platform.Run(ctx, "dumpsys", "package", playServicesPkg)
	if err != nil {
		return nil
	}
	name, code := parsePackageVersion(out)
	if name == "" {
		return nil
	}
	if code == "" {
		return optional(name)
	}
	return optional(name + " (" + code + ")")
}

// parsePackageVersion extracts versionName and versionCode from dumpsys
// package output. Only the first occurrence of each is used.
func parsePackageVersion(out string) (name, code string) {
	for _, line := range strings.Split(out, "\n") {
		for _, field := range strings.Fields(line) {
			if v, ok := strings.CutPrefix(field, "versionName="); ok && name == "" {
				name = v
			}
			if v, ok := strings.CutPrefix(field, "versionCode="); ok && code == "" {
				code = v
			}
		}
	}
	return name, code
}

// isEmulator applies build-property heuristics on Android and the
// virtualization role elsewhere.
func (e *environmentProbe) isEmulator(ctx context.Context, info *host.InfoStat) bool {
	prop := func(key string) string { return e.platform.Property(ctx, key) }

	if platform.IsAndroid(e.platform) {
		fingerprint := prop("ro.build.fingerprint")
		model := prop("ro.product.model")
		hardware := prop("ro.hardware")
		return strings.HasPrefix(fingerprint, "generic") ||
			strings.HasPrefix(fingerprint, "unknown") ||
			strings.Contains(model, "google_sdk") ||
			strings.Contains(model, "Emulator") ||
			strings.Contains(model, "Android SDK built for x86") ||
			strings.Contains(prop("ro.product.manufacturer"), "Genymotion") ||
			(strings.HasPrefix(prop("ro.product.brand"), "generic") && strings.HasPrefix(prop("ro.product.device"), "generic")) ||
			prop("ro.product.name") == "google_sdk" ||
			strings.Contains(hardware, "goldfish") ||
			strings.Contains(hardware, "ranchu") ||
			prop("ro.kernel.qemu") == "1"
	}
	return info != nil && info.VirtualizationRole == "guest"
}

// containerType returns "docker", "podman", "lxc" or "" for the container
// runtime the process runs in.
func (e *environmentProbe) containerType() string {
	if v := e.getenv("CONTAINER"); v != "" {
		return strings.ToLower(v)
	}
	if e.platform.FileExists("/.dockerenv") {
		return "docker"
	}
	if e.platform.FileExists("/run/.containerenv") {
		return "podman"
	}
	data, err := e.platform.ReadFile("/proc/1/cgroup")
	if err != nil {
		return ""
	}
	return parseCgroup(string(data))
}

// parseCgroup inspects /proc/1/cgroup for container runtime signatures.
func parseCgroup(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "docker"), strings.Contains(lower, "containerd"):
		return "docker"
	case strings.Contains(lower, "lxc"):
		return "lxc"
	case strings.Contains(lower, "libpod"):
		return "podman"
	default:
		return ""
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
