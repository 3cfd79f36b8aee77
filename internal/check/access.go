package check

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckDirectoryAccess verifies that path is a directory this process can
// list, and also write to when write is set.
func CheckDirectoryAccess(name, path string, write bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := access(path, write); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if write {
		return Result{Name: name, OK: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	}
	return Result{Name: name, OK: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// checkDestination checks dest, or the parent it will be created in.
func checkDestination(dest string) Result {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		r := CheckDirectoryAccess("Destination", filepath.Dir(dest), true)
		if r.OK {
			r.Detail = dest + " (will be created)"
		}
		return r
	}
	return CheckDirectoryAccess("Destination", dest, true)
}
