//go:build windows

package downloader

import "golang.org/x/sys/windows"

// diskFree reports available bytes on the volume holding path.
func diskFree(path string) (uint64, bool) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, false
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &free, &total, &totalFree); err != nil {
		return 0, false
	}
	return free, true
}
