//go:build linux || darwin

package gf

import (
	"golang.org/x/sys/unix"
)

// NewAlignedBuffer reserves n bytes on an anonymous mmap mapping, which
// the kernel always hands back page-aligned (far stricter than the
// SIMDWidth-byte alignment the codec actually needs). This is the
// unix-specific analogue of the original tool's aligned_alloc/free pair;
// Release calls munmap instead of relying on the garbage collector, so
// callers that process many large sessions in one process don't hold
// pages past the session's lifetime.
func NewAlignedBuffer(n int) (*AlignedBuffer, error) {
	if n <= 0 {
		return &AlignedBuffer{Bytes: nil, Alignment: unix.Getpagesize()}, nil
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	released := false
	return &AlignedBuffer{
		Bytes:     mem,
		Alignment: unix.Getpagesize(),
		release: func() {
			if released {
				return
			}
			released = true
			_ = unix.Munmap(mem)
		},
	}, nil
}
