//go:build windows

package dashboard

import (
	"syscall"
	"unsafe"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpace = kernel32.NewProc("GetDiskFreeSpaceExW")
)

func diskUsage(path string) DiskStats {
	var available, total, totalFree int64

	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return DiskStats{Path: path}
	}

	ret, _, _ := getDiskFreeSpace.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&available)),
		uintptr(unsafe.Pointer(&total)),
		uintptr(unsafe.Pointer(&totalFree)),
	)
	if ret == 0 {
		return DiskStats{Path: path}
	}

	return DiskStats{Free: uint64(available), Size: uint64(total), Path: path}
}
