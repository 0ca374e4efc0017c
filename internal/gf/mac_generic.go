//go:build !amd64 || noasm

package gf

// macImpl on non-amd64 platforms (and when the noasm build tag disables
// the unrolled path) is always the scalar reference loop.
func (f *Field) macImpl(dst, src []byte, coeff uint16) {
	f.macScalar(dst, src, coeff)
}
