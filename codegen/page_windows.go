//go:build windows

package codegen

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ExecutablePage is the Windows equivalent of the unix anonymous mapping in
// page_unix.go: VirtualAlloc in place of mmap, VirtualProtect in place of
// mprotect, so this package compiles on every teacher-supported OS without
// cgo.
type ExecutablePage struct {
	addr uintptr
	size int
}

// ReserveExecutablePage reserves and commits size bytes of writable memory.
func ReserveExecutablePage(size int) (*ExecutablePage, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("codegen: reserve executable page: %w", err)
	}
	return &ExecutablePage{addr: addr, size: size}, nil
}

// MakeExecutable flips the page from writable to executable.
func (p *ExecutablePage) MakeExecutable() error {
	var old uint32
	if err := windows.VirtualProtect(p.addr, uintptr(p.size), windows.PAGE_EXECUTE_READ, &old); err != nil {
		return fmt.Errorf("codegen: make page executable: %w", err)
	}
	return nil
}

// Bytes exposes the page's backing memory for a backend to write into while
// it is still writable.
func (p *ExecutablePage) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), p.size)
}

// Release frees the page.
func (p *ExecutablePage) Release() error {
	return windows.VirtualFree(p.addr, 0, windows.MEM_RELEASE)
}
