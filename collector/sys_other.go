//go:build !(linux || darwin || freebsd)

package collector

import (
	"github.com/shirou/gopsutil/v3/disk"
)

func statStorage(path string) (int64, int64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return int64(usage.Total), int64(usage.Free), nil
}

func kernelRelease() string { return "" }
