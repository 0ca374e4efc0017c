package gf

import (
	"encoding/binary"
	"sync"

	"github.com/templexxx/xorsimd"
)

// SIMDWidth is the number of field elements (2 bytes each) that a single
// vector lane is assumed to cover. 16 matches one 256-bit AVX2 register
// of 16-bit elements; buffer sizing (internal/driver) aligns block_bytes
// to 2*SIMDWidth bytes.
const SIMDWidth = 16

// MAC computes dst[i] ^= Mul(src[i], coeff) for every 16-bit field element
// i in [0, len(dst)/2). dst and src must have equal, even length. This is
// the hot path of both CRS encode (one call per data column) and CRS
// decode (one call per received chunk); dispatch picks a vectorised or
// scalar loop depending on the CPU, but every path is byte-for-byte
// equivalent to the scalar reference loop.
func (f *Field) MAC(dst, src []byte, coeff uint16) {
	if len(dst) != len(src) {
		panic("gf: MAC buffer length mismatch")
	}
	if len(dst)%2 != 0 {
		panic("gf: MAC buffer length must be even")
	}
	f.macImpl(dst, src, coeff)
}

// productLane writes the GF product of the i-th 16-bit field element of
// src and the coefficient (given by its precomputed log, logC) into the
// i-th element of prod. Shared by every dispatch variant so the per-lane
// multiply only has one implementation; the multiply has no SIMD
// equivalent in this codec (it's a table lookup through exp/log, not an
// arithmetic op a vector unit can do directly), so only the XOR-merge
// into dst is handed to a vectorised routine.
func productLane(f *Field, prod, src []byte, i, logC int) {
	s := binary.LittleEndian.Uint16(src[2*i:])
	var p uint16
	if s != 0 {
		p = f.exp[int(f.log[s])+logC]
	}
	binary.LittleEndian.PutUint16(prod[2*i:], p)
}

// productPool recycles the scratch buffer macScalar/macUnrolled use to
// hold one row's worth of GF products before merging them into dst,
// avoiding a fresh allocation on every MAC call in the encode/decode hot
// loop (mirrors the buffer-pooling idiom the teacher's vendored
// klauspost/reedsolomon uses in leopard.go's mPool).
var productPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0) },
}

func getProductBuffer(n int) []byte {
	buf := productPool.Get().([]byte)
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	return buf[:n]
}

func putProductBuffer(buf []byte) {
	productPool.Put(buf)
}

// macScalar is the reference, always-correct implementation: the
// semantic contract every dispatch variant must match byte-for-byte. It
// fills a scratch buffer with the per-lane GF products, then merges them
// into dst with templexxx/xorsimd's vectorised Bytes (the same XOR
// primitive the teacher's dependency graph vendors for KCP's packet
// merge paths), which picks AVX-512/AVX2/SSE2 on amd64 and a portable
// word-at-a-time path elsewhere.
func (f *Field) macScalar(dst, src []byte, coeff uint16) {
	if coeff == 0 {
		return
	}
	n := len(dst) / 2
	logC := int(f.log[coeff])
	prod := getProductBuffer(len(dst))
	defer putProductBuffer(prod)
	for i := 0; i < n; i++ {
		productLane(f, prod, src, i, logC)
	}
	xorsimd.Bytes(dst, dst, prod)
}
