//go:build !windows

package diskspace

import (
	"fmt"
	"syscall"
)

func free(path string) (int64, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	return int64(fs.Bavail) * int64(fs.Bsize), nil
}
