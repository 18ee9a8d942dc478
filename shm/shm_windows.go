//go:build windows
// +build windows

// File: shm/shm_windows.go
// Author: momentics <momentics@gmail.com>
//
// Paging-file backed named mappings. The kernel reference-counts the
// section, so the name disappears with the last handle.

package shm

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/momentics/melcomm/api"
)

type mapping struct {
	h    windows.Handle
	addr uintptr
}

func openMapping(name string, size int, mode api.OpenMode, _ bool) (*mapping, []byte, error) {
	wname, err := windows.UTF16PtrFromString(`Local\` + namePrefix + name)
	if err != nil {
		return nil, nil, errors.Wrap(api.ErrInvalidArgument, err.Error())
	}
	request := uint64(size)
	if mode == api.OpenOnly {
		request = 1
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(request>>32), uint32(request), wname)
	if h == 0 {
		return nil, nil, errors.Wrap(err, "shm: CreateFileMapping")
	}
	if mode == api.OpenOnly && err != windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(h)
		return nil, nil, errors.Wrapf(api.ErrNotMapped, "shm: %s does not exist", name)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, 0)
	if addr == 0 {
		windows.CloseHandle(h)
		return nil, nil, errors.Wrap(err, "shm: MapViewOfFile")
	}
	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(h)
		return nil, nil, errors.Wrap(err, "shm: VirtualQuery")
	}
	length := int(info.RegionSize)
	if length < size {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(h)
		return nil, nil, errors.Wrapf(api.ErrSizeMismatch, "shm: %s has %d bytes, %d requested", name, length, size)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
	return &mapping{h: h, addr: addr}, data, nil
}

func (m *mapping) close([]byte) error {
	err := windows.UnmapViewOfFile(m.addr)
	if cerr := windows.CloseHandle(m.h); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "shm: close")
}

func removeMapping(string) error { return nil }
