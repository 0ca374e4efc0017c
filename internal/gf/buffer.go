package gf

// AlignedBuffer is a scoped, SIMD-aligned byte buffer. Unlike the
// original C++ tool's raw aligned_alloc/free pair (spec.md section 9),
// ownership here is explicit: the buffer carries both its bytes and the
// alignment it was built with, and Release must be called on every exit
// path (including error paths) once the buffer is no longer needed. On
// most platforms Release is a no-op left to the garbage collector; the
// unix-backed variant (buffer_unix.go) actually unmaps the pages it
// reserved.
type AlignedBuffer struct {
	Bytes     []byte
	Alignment int
	release   func()
}

// Release frees any resources the buffer holds. Safe to call more than
// once; safe to call on the zero value.
func (b *AlignedBuffer) Release() {
	if b.release != nil {
		b.release()
		b.release = nil
	}
}
