package poly1305

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/chacha20"
	xpoly "golang.org/x/crypto/poly1305"
)

// keystream returns n deterministic pseudorandom bytes derived from seed, so
// tests are reproducible without shipping large fixtures.
func keystream(t *testing.T, seed byte, n int) []byte {
	t.Helper()
	key := make([]byte, chacha20.KeySize)
	for i := range key {
		key[i] = seed
	}
	nonce := make([]byte, chacha20.NonceSize)
	s, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, n)
	s.XORKeyStream(out, out)
	return out
}

func TestNaClVector(t *testing.T) {
	var mac [TagSize]byte

	Auth(&mac, naclMsg[:], &naclKey)
	if !bytes.Equal(mac[:], naclMac[:]) {
		t.Errorf("one-shot tag mismatch: %x", mac)
	}

	ctx := New(&naclKey)
	ctx.Write(naclMsg[:])
	ctx.Sum(&mac)
	if !bytes.Equal(mac[:], naclMac[:]) {
		t.Errorf("streaming tag mismatch: %x", mac)
	}
}

func TestNaClVectorChunked(t *testing.T) {
	// Chunk sizes straddle every supported block size: 32, 64, 16, 8, 4, 2,
	// then single bytes to the end.
	ctx := New(&naclKey)
	off := 0
	for _, n := range selfTestChunks {
		ctx.Write(naclMsg[off : off+n])
		off += n
	}
	if off != len(naclMsg) {
		t.Fatalf("chunk pattern covers %d of %d bytes", off, len(naclMsg))
	}

	var mac [TagSize]byte
	ctx.Sum(&mac)
	if !bytes.Equal(mac[:], naclMac[:]) {
		t.Errorf("chunked tag mismatch: %x", mac)
	}
}

func TestWrapAround(t *testing.T) {
	// r = 2, message of sixteen 0xff bytes: the accumulator reaches
	// 2¹³⁰ - 2, which reduces to 3.
	var mac [TagSize]byte
	Auth(&mac, wrapMsg[:], &wrapKey)
	if !bytes.Equal(mac[:], wrapMac[:]) {
		t.Errorf("wrap tag mismatch: %x", mac)
	}
}

func TestEmptyMessage(t *testing.T) {
	// With no blocks absorbed the accumulator stays zero and the tag is s,
	// the second half of the key.
	for seed := byte(0); seed < 8; seed++ {
		var key [KeySize]byte
		copy(key[:], keystream(t, seed, KeySize))

		var mac [TagSize]byte
		Auth(&mac, nil, &key)
		if !bytes.Equal(mac[:], key[16:]) {
			t.Errorf("seed %d: empty-message tag %x, want %x", seed, mac, key[16:])
		}

		ctx := New(&key)
		ctx.Sum(&mac)
		if !bytes.Equal(mac[:], key[16:]) {
			t.Errorf("seed %d: empty-stream tag %x, want %x", seed, mac, key[16:])
		}
	}
}

func TestHintIndependence(t *testing.T) {
	msg := keystream(t, 0x51, 300)
	var key [KeySize]byte
	copy(key[:], keystream(t, 0x52, KeySize))

	var want [TagSize]byte
	ctx := New(&key)
	ctx.Write(msg)
	ctx.Sum(&want)

	for _, hint := range []uint64{0, 1, 16, 64, 131, 300, 1 << 20, 1 << 40} {
		var mac [TagSize]byte
		ctx := NewWithHint(&key, hint)
		ctx.Write(msg)
		ctx.Sum(&mac)
		if !bytes.Equal(mac[:], want[:]) {
			t.Errorf("hint %d changed the tag: %x != %x", hint, mac, want)
		}
	}
}

func TestChunkingInvariance(t *testing.T) {
	msg := keystream(t, 0x61, 300)
	var key [KeySize]byte
	copy(key[:], keystream(t, 0x62, KeySize))

	var want [TagSize]byte
	Auth(&want, msg, &key)

	// Fixed strides across every block-size boundary.
	for stride := 1; stride <= 70; stride++ {
		ctx := New(&key)
		for off := 0; off < len(msg); off += stride {
			end := off + stride
			if end > len(msg) {
				end = len(msg)
			}
			ctx.Write(msg[off:end])
		}
		var mac [TagSize]byte
		ctx.Sum(&mac)
		if !bytes.Equal(mac[:], want[:]) {
			t.Errorf("stride %d changed the tag: %x != %x", stride, mac, want)
		}
	}

	// A ragged pseudorandom partition.
	cuts := keystream(t, 0x63, 64)
	ctx := New(&key)
	off := 0
	for _, c := range cuts {
		n := int(c%67) + 1
		if off+n > len(msg) {
			n = len(msg) - off
		}
		ctx.Write(msg[off : off+n])
		off += n
		if off == len(msg) {
			break
		}
	}
	ctx.Write(msg[off:])
	var mac [TagSize]byte
	ctx.Sum(&mac)
	if !bytes.Equal(mac[:], want[:]) {
		t.Errorf("ragged partition changed the tag: %x != %x", mac, want)
	}
}

func TestVerify(t *testing.T) {
	if !Verify(&naclMac, naclMsg[:], &naclKey) {
		t.Error("Verify rejected a valid tag")
	}

	bad := naclMac
	bad[0] ^= 0x01
	if Verify(&bad, naclMsg[:], &naclKey) {
		t.Error("Verify accepted a corrupted tag")
	}

	msg := append([]byte(nil), naclMsg[:]...)
	msg[130] ^= 0x80
	if Verify(&naclMac, msg, &naclKey) {
		t.Error("Verify accepted a corrupted message")
	}
}

// TestAgainstXCrypto cross-checks every message length from 0 to 300 bytes
// against the golang.org/x/crypto implementation.
func TestAgainstXCrypto(t *testing.T) {
	data := keystream(t, 0x71, 300)
	keys := keystream(t, 0x72, (300+1)*KeySize)

	for n := 0; n <= 300; n++ {
		var key [KeySize]byte
		copy(key[:], keys[n*KeySize:])
		msg := data[:n]

		var got, want [TagSize]byte
		Auth(&got, msg, &key)
		xpoly.Sum(&want, msg, &key)
		if !bytes.Equal(got[:], want[:]) {
			t.Fatalf("length %d: %x != %x", n, got, want)
		}
	}
}
