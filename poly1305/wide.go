package poly1305

import (
	"encoding/binary"
)

// The wide back-end keeps the accumulator in five 26-bit limbs and evaluates
// several 16-byte sub-blocks per call using precomputed powers of r:
//
//	h' = (h + b₁)·rˢ + b₂·rˢ⁻¹ + … + b_s·r  mod  2¹³⁰ - 5
//
// which equals absorbing the sub-blocks one at a time. A stride of 1 is the
// scalar 32-bit schedule; strides 2 and 4 give the 32- and 64-byte block
// sizes of the vector-capable back-ends.
type wideState struct {
	h [5]uint32
	// pow[k] holds r^(k+1) as carried by carry26 (limb 1 may sit slightly
	// above 26 bits), so the generic multiply below can take any of them as
	// an operand.
	pow    [4][5]uint32
	pad    [4]uint32
	stride int
}

const limbMask26 = 0x3ffffff

func newWideEngine(stride int) func(key *[KeySize]byte, bytesHint uint64) engine {
	return func(key *[KeySize]byte, _ uint64) engine {
		st := &wideState{stride: stride}
		st.init(key)
		return st
	}
}

func (st *wideState) init(key *[KeySize]byte) {
	// Split r into 26-bit limbs; the masks fold in the standard clamping.
	st.pow[0][0] = binary.LittleEndian.Uint32(key[0:4]) & 0x3ffffff
	st.pow[0][1] = (binary.LittleEndian.Uint32(key[3:7]) >> 2) & 0x3ffff03
	st.pow[0][2] = (binary.LittleEndian.Uint32(key[6:10]) >> 4) & 0x3ffc0ff
	st.pow[0][3] = (binary.LittleEndian.Uint32(key[9:13]) >> 6) & 0x3f03fff
	st.pow[0][4] = (binary.LittleEndian.Uint32(key[12:16]) >> 8) & 0x00fffff

	// Every power the stride can reference is computed up front; the length
	// hint cannot change the tag and is not consulted here.
	for k := 1; k < st.stride; k++ {
		st.pow[k] = mul26(&st.pow[k-1], &st.pow[0])
	}

	for i := 0; i < 4; i++ {
		st.pad[i] = binary.LittleEndian.Uint32(key[16+4*i:])
	}
}

// decode26 unpacks one 16-byte block into 26-bit limbs. hibit is 1<<24 for a
// full block (the implicit bit at position 128) and 0 for the padded final
// block.
func decode26(m []byte, hibit uint32) [5]uint32 {
	return [5]uint32{
		binary.LittleEndian.Uint32(m[0:4]) & limbMask26,
		(binary.LittleEndian.Uint32(m[3:7]) >> 2) & limbMask26,
		(binary.LittleEndian.Uint32(m[6:10]) >> 4) & limbMask26,
		(binary.LittleEndian.Uint32(m[9:13]) >> 6) & limbMask26,
		(binary.LittleEndian.Uint32(m[12:16]) >> 8) | hibit,
	}
}

// accumMul26 adds a*b into the 64-bit accumulators, folding the limbs above
// 2¹³⁰ back down by the 2¹³⁰ ≡ 5 identity. With a's limbs under 2²⁷ and b
// carried, up to four accumulated multiplications fit in d without
// overflowing.
func accumMul26(d *[5]uint64, a, b *[5]uint32) {
	a0, a1, a2, a3, a4 := uint64(a[0]), uint64(a[1]), uint64(a[2]), uint64(a[3]), uint64(a[4])
	b0, b1, b2, b3, b4 := uint64(b[0]), uint64(b[1]), uint64(b[2]), uint64(b[3]), uint64(b[4])
	s1, s2, s3, s4 := b1*5, b2*5, b3*5, b4*5

	d[0] += a0*b0 + a1*s4 + a2*s3 + a3*s2 + a4*s1
	d[1] += a0*b1 + a1*b0 + a2*s4 + a3*s3 + a4*s2
	d[2] += a0*b2 + a1*b1 + a2*b0 + a3*s4 + a4*s3
	d[3] += a0*b3 + a1*b2 + a2*b1 + a3*b0 + a4*s4
	d[4] += a0*b4 + a1*b3 + a2*b2 + a3*b1 + a4*b0
}

// carry26 propagates the accumulators back to (nearly) 26-bit limbs. The
// result is partially reduced: limb 1 may briefly exceed 26 bits, which the
// next multiplication tolerates.
func carry26(d *[5]uint64) [5]uint32 {
	c := d[0] >> 26
	h0 := uint32(d[0]) & limbMask26
	d[1] += c
	c = d[1] >> 26
	h1 := uint32(d[1]) & limbMask26
	d[2] += c
	c = d[2] >> 26
	h2 := uint32(d[2]) & limbMask26
	d[3] += c
	c = d[3] >> 26
	h3 := uint32(d[3]) & limbMask26
	d[4] += c
	c = d[4] >> 26
	h4 := uint32(d[4]) & limbMask26
	// c can exceed 32 bits after four accumulated products, so the fold
	// into limb 0 is done in 64 bits.
	f := uint64(h0) + c*5
	h0 = uint32(f) & limbMask26
	h1 += uint32(f >> 26)

	return [5]uint32{h0, h1, h2, h3, h4}
}

// mul26 returns a*b mod 2¹³⁰ - 5 with the product carried down to limbs.
func mul26(a, b *[5]uint32) [5]uint32 {
	var d [5]uint64
	accumMul26(&d, a, b)
	return carry26(&d)
}

func (st *wideState) blocks(m []byte) {
	bs := st.stride * 16
	for len(m) > 0 {
		var d [5]uint64

		b := decode26(m[0:16], 1<<24)
		var t [5]uint32
		for i := range t {
			t[i] = st.h[i] + b[i]
		}
		accumMul26(&d, &t, &st.pow[st.stride-1])

		for i := 1; i < st.stride; i++ {
			b := decode26(m[i*16:(i+1)*16], 1<<24)
			accumMul26(&d, &b, &st.pow[st.stride-1-i])
		}

		st.h = carry26(&d)
		m = m[bs:]
	}
}

// absorb folds a single decoded sub-block: h = (h + b) * r.
func (st *wideState) absorb(b *[5]uint32) {
	var d [5]uint64
	var t [5]uint32
	for i := range t {
		t[i] = st.h[i] + b[i]
	}
	accumMul26(&d, &t, &st.pow[0])
	st.h = carry26(&d)
}

func (st *wideState) finish(tail []byte, mac *[TagSize]byte) {
	// The tail may still hold whole 16-byte sub-blocks when the native block
	// size is wider; they are ordinary blocks with the implicit high bit.
	for len(tail) >= 16 {
		b := decode26(tail[:16], 1<<24)
		st.absorb(&b)
		tail = tail[16:]
	}
	if len(tail) > 0 {
		var buf [16]byte
		copy(buf[:], tail)
		buf[len(tail)] = 1
		b := decode26(buf[:], 0)
		st.absorb(&b)
	}

	h0, h1, h2, h3, h4 := st.h[0], st.h[1], st.h[2], st.h[3], st.h[4]

	// Full carry.
	c := h1 >> 26
	h1 &= limbMask26
	h2 += c
	c = h2 >> 26
	h2 &= limbMask26
	h3 += c
	c = h3 >> 26
	h3 &= limbMask26
	h4 += c
	c = h4 >> 26
	h4 &= limbMask26
	h0 += c * 5
	c = h0 >> 26
	h0 &= limbMask26
	h1 += c

	// g = h + 5 - 2¹³⁰; the top limb's borrow decides which of h and g is
	// the reduced value, selected by mask rather than branch.
	g0 := h0 + 5
	c = g0 >> 26
	g0 &= limbMask26
	g1 := h1 + c
	c = g1 >> 26
	g1 &= limbMask26
	g2 := h2 + c
	c = g2 >> 26
	g2 &= limbMask26
	g3 := h3 + c
	c = g3 >> 26
	g3 &= limbMask26
	g4 := h4 + c - (1 << 26)

	sel := (g4 >> 31) - 1
	h0 = h0&^sel | g0&sel
	h1 = h1&^sel | g1&sel
	h2 = h2&^sel | g2&sel
	h3 = h3&^sel | g3&sel
	h4 = h4&^sel | g4&sel

	// Repack to 2¹²⁸ and add s with 64-bit carries.
	t0 := h0 | h1<<26
	t1 := h1>>6 | h2<<20
	t2 := h2>>12 | h3<<14
	t3 := h3>>18 | h4<<8

	f := uint64(t0) + uint64(st.pad[0])
	t0 = uint32(f)
	f = uint64(t1) + uint64(st.pad[1]) + f>>32
	t1 = uint32(f)
	f = uint64(t2) + uint64(st.pad[2]) + f>>32
	t2 = uint32(f)
	f = uint64(t3) + uint64(st.pad[3]) + f>>32
	t3 = uint32(f)

	binary.LittleEndian.PutUint32(mac[0:4], t0)
	binary.LittleEndian.PutUint32(mac[4:8], t1)
	binary.LittleEndian.PutUint32(mac[8:12], t2)
	binary.LittleEndian.PutUint32(mac[12:16], t3)

	st.h = [5]uint32{}
}

func wideAuth(stride int) func(mac *[TagSize]byte, m []byte, key *[KeySize]byte) {
	return func(mac *[TagSize]byte, m []byte, key *[KeySize]byte) {
		st := &wideState{stride: stride}
		st.init(key)
		bs := stride * 16
		n := len(m) &^ (bs - 1)
		if n > 0 {
			st.blocks(m[:n])
		}
		st.finish(m[n:], mac)
	}
}
