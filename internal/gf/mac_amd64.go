//go:build amd64 && !noasm

package gf

import (
	"github.com/klauspost/cpuid"
	"github.com/templexxx/cpu"
	"github.com/templexxx/xorsimd"
)

// macImpl on amd64 dispatches to an 8-way unrolled loop when the CPU
// supports AVX2 (checked through both templexxx/cpu and klauspost/cpuid,
// matching the layered feature-detection the teacher's dependency graph
// uses in reedsolomon/options.go); otherwise it falls back to the
// portable scalar loop. Both paths are byte-for-byte identical.
func (f *Field) macImpl(dst, src []byte, coeff uint16) {
	if coeff == 0 {
		return
	}
	if cpu.X86.HasAVX2 && cpuid.CPU.Supports(cpuid.AVX2) {
		f.macUnrolled(dst, src, coeff)
		return
	}
	f.macScalar(dst, src, coeff)
}

// macUnrolled computes 8 field-element products per iteration, then hands
// the whole row to xorsimd.Bytes for the actual vectorised XOR-merge into
// dst - xorsimd picks AVX-512/AVX2/SSE2 internally once per call. The
// multiply table lookups themselves have no AVX2 instruction to replace
// them with; a true assembly kernel would replace this loop's body
// without changing MAC's external contract.
func (f *Field) macUnrolled(dst, src []byte, coeff uint16) {
	n := len(dst) / 2
	logC := int(f.log[coeff])
	prod := getProductBuffer(len(dst))
	defer putProductBuffer(prod)
	i := 0
	for ; i+8 <= n; i += 8 {
		productLane(f, prod, src, i, logC)
		productLane(f, prod, src, i+1, logC)
		productLane(f, prod, src, i+2, logC)
		productLane(f, prod, src, i+3, logC)
		productLane(f, prod, src, i+4, logC)
		productLane(f, prod, src, i+5, logC)
		productLane(f, prod, src, i+6, logC)
		productLane(f, prod, src, i+7, logC)
	}
	for ; i < n; i++ {
		productLane(f, prod, src, i, logC)
	}
	xorsimd.Bytes(dst, dst, prod)
}
