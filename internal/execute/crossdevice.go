package execute

import (
	"os"
	"syscall"
)

// isCrossDevice reports whether err is os.Rename failing because source
// and dest live on different filesystems, the case moveFile falls back to
// copy+remove for.
func isCrossDevice(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	return linkErr.Err == syscall.EXDEV
}
