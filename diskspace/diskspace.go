// Package diskspace reports free space on the filesystem holding the
// download area.
package diskspace

// Free returns the number of bytes available to unprivileged users on the
// filesystem containing path.
func Free(path string) (int64, error) {
	return free(path)
}
