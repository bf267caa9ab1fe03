// Package platform provides the environment probe used by the collectors:
// build properties, pseudo-files under /proc and /sys, subprocess
// invocation and permission checks. Collectors depend only on the
// Platform interface so tests can substitute Fake.
package platform

import (
	"context"
	"errors"
)

// ErrCommandNotFound is returned by Run when the executable is missing.
var ErrCommandNotFound = errors.New("command not found")

// UngatedAPILevel is reported by hosts that have no Android SDK level.
// Every minimum-API check passes against it.
const UngatedAPILevel = 1<<31 - 1

// Android SDK levels referenced by the collectors.
const (
	APIIceCreamSandwich = 14
	APIJellyBean        = 16
	APIMarshmallow      = 23
)

// Permission names an authorization scope a collector may need.
type Permission string

const (
	AccessNetworkState Permission = "android.permission.ACCESS_NETWORK_STATE"
	AccessWifiState    Permission = "android.permission.ACCESS_WIFI_STATE"
	ReadPhoneState     Permission = "android.permission.READ_PHONE_STATE"
)

// Platform abstracts the host the collectors query.
type Platform interface {
	// Name returns the platform identifier ("android", "linux", ...).
	Name() string

	// APILevel returns the Android SDK level, or UngatedAPILevel on
	// hosts without one.
	APILevel() int

	// Property returns a build/system property, or "" if unset.
	Property(ctx context.Context, key string) string

	// HasPermission reports whether the calling process holds p.
	HasPermission(p Permission) bool

	// ReadFile reads a file such as /proc/version.
	ReadFile(path string) ([]byte, error)

	// FileExists reports whether path exists.
	FileExists(path string) bool

	// Glob returns the paths matching pattern.
	Glob(pattern string) ([]string, error)

	// Run executes a command and returns its trimmed standard output.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// LookPath searches PATH for an executable.
	LookPath(file string) (string, error)
}

// IsAndroid reports whether p describes an Android device.
func IsAndroid(p Platform) bool {
	return p.Name() == "android"
}
