package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// buildPropFile exists on every Android system image.
const buildPropFile = "/system/build.prop"

// Host is the Platform backed by the running operating system. Build
// properties are read once via getprop and cached, since they do not
// change for the lifetime of the process.
type Host struct {
	propsOnce sync.Once
	props     map[string]string
}

// New creates a Host platform.
func New() *Host {
	return &Host{}
}

// Name returns "android" when an Android system image is detected,
// otherwise runtime.GOOS.
func (h *Host) Name() string {
	if runtime.GOOS == "android" || h.FileExists(buildPropFile) {
		return "android"
	}
	return runtime.GOOS
}

// APILevel returns ro.build.version.sdk, or UngatedAPILevel when the host
// has no Android SDK level.
func (h *Host) APILevel() int {
	raw := h.Property(context.Background(), "ro.build.version.sdk")
	if raw == "" {
		return UngatedAPILevel
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return UngatedAPILevel
	}
	return level
}

// Property returns a system property from getprop.
func (h *Host) Property(ctx context.Context, key string) string {
	h.propsOnce.Do(func() {
		h.props = map[string]string{}
		out, err := h.Run(ctx, "getprop")
		if err != nil {
			return
		}
		h.props = ParseGetprop(out)
	})
	return h.props[key]
}

// HasPermission approximates the Android permission model by checking
// that the pseudo-files backing each scope are readable.
func (h *Host) HasPermission(p Permission) bool {
	switch p {
	case AccessNetworkState:
		return readable("/proc/net/dev")
	case AccessWifiState:
		return readable("/proc/net/wireless")
	case ReadPhoneState:
		if h.Name() != "android" {
			return false
		}
		_, err := h.LookPath("getprop")
		return err == nil
	default:
		return false
	}
}

// ReadFile reads the named file.
func (h *Host) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileExists reports whether path exists.
func (h *Host) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Glob returns the paths matching pattern.
func (h *Host) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Run executes name with args and returns trimmed stdout.
func (h *Host) Run(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LookPath searches PATH for file.
func (h *Host) LookPath(file string) (string, error) {
	path, err := exec.LookPath(file)
	if errors.Is(err, exec.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", file, ErrCommandNotFound)
	}
	return path, err
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ParseGetprop parses getprop output lines of the form "[key]: [value]".
func ParseGetprop(out string) map[string]string {
	props := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "]: [")
		if !ok || !strings.HasPrefix(key, "[") || !strings.HasSuffix(value, "]") {
			continue
		}
		props[key[1:]] = value[:len(value)-1]
	}
	return props
}

// ParseKeyValue parses KEY=VALUE lines such as /etc/os-release, stripping
// surrounding quotes from values.
func ParseKeyValue(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, "\"'")
	}
	return fields
}
