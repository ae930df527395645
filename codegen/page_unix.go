//go:build unix

package codegen

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ExecutablePage is an anonymous memory mapping that starts writable and
// can be flipped to executable once a backend has written machine code into
// it — the installed-code buffer an OSR entry or optimized compile would
// hand back (spec §3, "Graph" is filled in once a compile produces one).
// Nothing in this package ever writes instructions into it; instruction
// selection stays an external collaborator (spec §1).
type ExecutablePage struct {
	data []byte
}

// ReserveExecutablePage mmaps size bytes of anonymous, writable memory.
func ReserveExecutablePage(size int) (*ExecutablePage, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("codegen: reserve executable page: %w", err)
	}
	return &ExecutablePage{data: data}, nil
}

// MakeExecutable flips the page from writable to executable. Callers must
// have finished writing before calling this — W^X, not W+X.
func (p *ExecutablePage) MakeExecutable() error {
	if err := unix.Mprotect(p.data, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("codegen: make page executable: %w", err)
	}
	return nil
}

// Bytes exposes the page's backing memory for a backend to write into while
// it is still writable.
func (p *ExecutablePage) Bytes() []byte { return p.data }

// Release unmaps the page.
func (p *ExecutablePage) Release() error {
	return unix.Munmap(p.data)
}
