//go:build linux || darwin || freebsd

package collector

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// statStorage returns total and available bytes of the filesystem
// holding path. Available counts only blocks usable by unprivileged
// processes.
func statStorage(path string) (int64, int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	blockSize := uint64(st.Bsize)
	return int64(uint64(st.Blocks) * blockSize), int64(uint64(st.Bavail) * blockSize), nil
}

// kernelRelease returns the running kernel release from uname(2).
func kernelRelease() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}
