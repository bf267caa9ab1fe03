package collector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/platform"
	"github.com/vitalis-app/deviceinfo/result"
)

// Compile-time checks that the collectors satisfy the contract.
var (
	_ Collector[models.HardwareInfo] = (*HardwareCollector)(nil)
	_ Collector[models.SystemInfo]   = (*SystemCollector)(nil)
	_ Collector[models.NetworkInfo]  = (*NetworkCollector)(nil)
)

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name  string
		level int
		fn    func() (int, error)
		want  result.Kind
	}{
		{"success", 30, func() (int, error) { return 7, nil }, result.KindSuccess},
		{"api too low", 10, func() (int, error) { return 7, nil }, result.KindNotAvailable},
		{"permission", 30, func() (int, error) {
			return 0, fmt.Errorf("read: %w", result.ErrPermissionDenied)
		}, result.KindPermissionDenied},
		{"failure", 30, func() (int, error) { return 0, errors.New("boom") }, result.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBase(platform.NewFake(tt.level), nil, 14, "Test data")
			res := safeExecute(&b, tt.fn)
			assert.Equal(t, tt.want, res.Kind())
		})
	}
}

func TestSafeExecute_ErrorMessageNamesCollector(t *testing.T) {
	b := newBase(platform.NewFake(30), nil, 14, "Test data")
	res := safeExecute(&b, func() (string, error) { return "", errors.New("boom") })

	assert.Equal(t, "Failed to collect Test data", res.Message())
	assert.EqualError(t, res.Err(), "boom")
}

func TestBase_CheckPermissions(t *testing.T) {
	p := platform.NewFake(30)
	b := newBase(p, nil, 14, "Test data", platform.AccessNetworkState, platform.AccessWifiState)

	assert.False(t, b.checkPermissions())
	p.Grant(platform.AccessNetworkState)
	assert.False(t, b.checkPermissions())
	p.Grant(platform.AccessWifiState)
	assert.True(t, b.checkPermissions())
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	v := optional("x")
	if assert.NotNil(t, v) {
		assert.Equal(t, "x", *v)
	}
}

func TestLeadingInt(t *testing.T) {
	assert.Equal(t, -52, leadingInt(" -52 dBm"))
	assert.Equal(t, 72, leadingInt("72.2 MBit/s"))
	assert.Equal(t, -40, leadingInt("-40."))
	assert.Equal(t, -1, leadingInt("n/a"))
}
