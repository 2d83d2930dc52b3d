package poly1305

import (
	"encoding/binary"
	"math/bits"
)

// The reference back-end keeps the accumulator in saturated 64-bit
// little-endian limbs: the value of [h0, h1, h2] is h0 + h1*2⁶⁴ + h2*2¹²⁸.
// It consumes one 16-byte block at a time.
const refBlockSize = 16

type refState struct {
	// h is the polynomial accumulator, interpreted modulo 2¹³⁰ - 5. It may
	// grow past the modulus between rounds; only finish reduces it fully.
	h [3]uint64
	// r and s are the private key halves, r already clamped.
	r [2]uint64
	s [2]uint64
}

// [rMask0, rMask1] is the Poly1305 clamping mask in little-endian. It clears
// the top four bits of key bytes 3, 7, 11, 15 and the bottom two bits of key
// bytes 4, 8, 12.
const (
	rMask0 = 0x0FFFFFFC0FFFFFFF
	rMask1 = 0x0FFFFFFC0FFFFFFC
)

func newRefEngine(key *[KeySize]byte, _ uint64) engine {
	st := &refState{}
	st.init(key)
	return st
}

func (st *refState) init(key *[KeySize]byte) {
	st.r[0] = binary.LittleEndian.Uint64(key[0:8]) & rMask0
	st.r[1] = binary.LittleEndian.Uint64(key[8:16]) & rMask1
	st.s[0] = binary.LittleEndian.Uint64(key[16:24])
	st.s[1] = binary.LittleEndian.Uint64(key[24:32])
}

// uint128 holds a 128-bit number as two 64-bit limbs, for use with the
// bits.Mul64 and bits.Add64 intrinsics.
type uint128 struct {
	lo, hi uint64
}

func mul64(a, b uint64) uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128{lo, hi}
}

func add128(a, b uint128) uint128 {
	lo, c := bits.Add64(a.lo, b.lo, 0)
	hi, c := bits.Add64(a.hi, b.hi, c)
	if c != 0 {
		panic("poly1305: unexpected overflow")
	}
	return uint128{lo, hi}
}

func shiftRightBy2(a uint128) uint128 {
	a.lo = a.lo>>2 | (a.hi&3)<<62
	a.hi = a.hi >> 2
	return a
}

const (
	maskLow2Bits    uint64 = 0x0000000000000003
	maskNotLow2Bits uint64 = ^maskLow2Bits
)

// consume absorbs a whole number of 16-byte blocks, computing for each
//
//	h = (h + m + hibit*2¹²⁸) * r  mod  2¹³⁰ - 5
//
// hibit is 1 for ordinary blocks and 0 for the padded final block, which
// carries its delimiter inside the block bytes instead.
func (st *refState) consume(m []byte, hibit uint64) {
	h0, h1, h2 := st.h[0], st.h[1], st.h[2]
	r0, r1 := st.r[0], st.r[1]

	for len(m) > 0 {
		var c uint64

		h0, c = bits.Add64(h0, binary.LittleEndian.Uint64(m[0:8]), 0)
		h1, c = bits.Add64(h1, binary.LittleEndian.Uint64(m[8:16]), c)
		h2 += c + hibit

		// Columnar multiplication of the 3-limb h by the 2-limb r. The clamped
		// top bits of r0 and r1 guarantee the intermediate additions cannot
		// overflow and the product has no fifth limb.
		h0r0 := mul64(h0, r0)
		h1r0 := mul64(h1, r0)
		h2r0 := mul64(h2, r0)
		h0r1 := mul64(h0, r1)
		h1r1 := mul64(h1, r1)
		h2r1 := mul64(h2, r1)

		if h2r0.hi != 0 || h2r1.hi != 0 {
			panic("poly1305: unexpected overflow")
		}

		m0 := h0r0
		m1 := add128(h1r0, h0r1)
		m2 := add128(h2r0, h1r1)
		m3 := h2r1

		t0 := m0.lo
		t1, c := bits.Add64(m1.lo, m0.hi, 0)
		t2, c := bits.Add64(m2.lo, m1.hi, c)
		t3, _ := bits.Add64(m3.lo, m2.hi, c)

		// Partial reduction via 2¹³⁰ = 5 mod 2¹³⁰ - 5: split at the 2¹³⁰ mark
		// and fold the carry back in as c*4 + c.
		h0, h1, h2 = t0, t1, t2&maskLow2Bits
		cc := uint128{t2 & maskNotLow2Bits, t3}

		h0, c = bits.Add64(h0, cc.lo, 0)
		h1, c = bits.Add64(h1, cc.hi, c)
		h2 += c

		cc = shiftRightBy2(cc)

		h0, c = bits.Add64(h0, cc.lo, 0)
		h1, c = bits.Add64(h1, cc.hi, c)
		h2 += c

		m = m[refBlockSize:]
	}

	st.h[0], st.h[1], st.h[2] = h0, h1, h2
}

func (st *refState) blocks(m []byte) {
	st.consume(m, 1)
}

// select64 returns x if v == 1 and y if v == 0, in constant time.
func select64(v, x, y uint64) uint64 { return ^(v-1)&x | (v-1)&y }

// [p0, p1, p2] is 2¹³⁰ - 5 in little-endian order.
const (
	p0 = 0xFFFFFFFFFFFFFFFB
	p1 = 0xFFFFFFFFFFFFFFFF
	p2 = 0x0000000000000003
)

func (st *refState) finish(tail []byte, mac *[TagSize]byte) {
	if len(tail) > 0 {
		var buf [refBlockSize]byte
		copy(buf[:], tail)
		buf[len(tail)] = 1
		st.consume(buf[:], 0)
	}

	h0, h1, h2 := st.h[0], st.h[1], st.h[2]

	// h is partially reduced and may still exceed 2¹³⁰ - 5. Compute
	// t = h - (2¹³⁰ - 5) and select h or t by the borrow, without branching
	// on secret data.
	t0, b := bits.Sub64(h0, p0, 0)
	t1, b := bits.Sub64(h1, p1, b)
	_, b = bits.Sub64(h2, p2, b)

	h0 = select64(b, h0, t0)
	h1 = select64(b, h1, t1)

	// tag = h + s mod 2¹²⁸
	h0, c := bits.Add64(h0, st.s[0], 0)
	h1, _ = bits.Add64(h1, st.s[1], c)

	binary.LittleEndian.PutUint64(mac[0:8], h0)
	binary.LittleEndian.PutUint64(mac[8:16], h1)

	st.h = [3]uint64{}
}

func refAuth(mac *[TagSize]byte, m []byte, key *[KeySize]byte) {
	st := &refState{}
	st.init(key)
	n := len(m) &^ (refBlockSize - 1)
	if n > 0 {
		st.blocks(m[:n])
	}
	st.finish(m[n:], mac)
}
