package system

import (
	"fmt"
	"syscall"
)

// MinFreeBytes is the free space below which the settings store may fail to write.
const MinFreeBytes = 50 << 20

// AvailableSpace returns the available disk space in bytes for the given path
func AvailableSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// IsLowSpace reports whether path has less than MinFreeBytes available.
func IsLowSpace(path string) (bool, uint64, error) {
	available, err := AvailableSpace(path)
	if err != nil {
		return false, 0, err
	}
	return available < MinFreeBytes, available, nil
}
