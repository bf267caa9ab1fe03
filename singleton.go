package deviceinfo

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vitalis-app/deviceinfo/platform"
)

// ErrNotInitialized is returned by Instance before Initialize is called.
var ErrNotInitialized = errors.New("deviceinfo: not initialized, call Initialize first")

var (
	instanceMu sync.Mutex
	instance   atomic.Pointer[SDK]
)

// Initialize creates the process-wide SDK. The first call wins; later
// calls return the existing instance and ignore their arguments.
func Initialize(p platform.Platform, cfg Config, opts ...Option) *SDK {
	if s := instance.Load(); s != nil {
		return s
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if s := instance.Load(); s != nil {
		return s
	}
	s := New(p, cfg, opts...)
	instance.Store(s)
	return s
}

// Instance returns the process-wide SDK.
func Instance() (*SDK, error) {
	if s := instance.Load(); s != nil {
		return s, nil
	}
	return nil, ErrNotInitialized
}
