package poly1305

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPowerOnSelfTest(t *testing.T) {
	require.True(t, PowerOnSelfTest(), "self-test failed for the %s back-end", best.name)
}

func TestSelfTestDeterministic(t *testing.T) {
	first := PowerOnSelfTest()
	for i := 0; i < 3; i++ {
		require.Equal(t, first, PowerOnSelfTest())
	}
}

func TestDetect(t *testing.T) {
	require.True(t, Detect(), "detection self-tests failed")

	// Whatever was promoted must reproduce the reference tags.
	var mac [TagSize]byte
	Auth(&mac, naclMsg[:], &naclKey)
	require.Equal(t, naclMac[:], mac[:], "selected back-end %s disagrees on the NaCl vector", best.name)
	Auth(&mac, wrapMsg[:], &wrapKey)
	require.Equal(t, wrapMac[:], mac[:], "selected back-end %s disagrees on the wrap vector", best.name)
}

func TestDetectIdempotent(t *testing.T) {
	require.True(t, Detect())
	chosen := best
	require.True(t, Detect())
	require.Same(t, chosen, best)
}

// TestBackendAgreement runs every registered back-end, eligible on this host
// or not, against the reference arithmetic: one-shot and streamed in chunk
// sizes that exercise the staging buffer around each block boundary.
func TestBackendAgreement(t *testing.T) {
	all := append([]*backendRec{refBackend}, candidates...)
	data := keystream(t, 0x81, 260)
	var key [KeySize]byte
	copy(key[:], keystream(t, 0x82, KeySize))

	for _, rec := range all {
		rec := rec
		t.Run(rec.name, func(t *testing.T) {
			for n := 0; n <= len(data); n++ {
				msg := data[:n]

				var want [TagSize]byte
				refAuth(&want, msg, &key)

				var got [TagSize]byte
				rec.auth(&got, msg, &key)
				require.Equal(t, want[:], got[:], "one-shot, length %d", n)

				for _, chunk := range []int{1, 7, rec.blockBytes - 1, rec.blockBytes, rec.blockBytes + 1} {
					ctx := &Context{
						eng:       rec.newEngine(&key, uint64(n)),
						blockSize: rec.blockBytes,
					}
					for off := 0; off < n; off += chunk {
						end := off + chunk
						if end > n {
							end = n
						}
						ctx.Write(msg[off:end])
					}
					ctx.Sum(&got)
					require.Equal(t, want[:], got[:], "chunk %d, length %d", chunk, n)
				}
			}
		})
	}
}

func TestBackendBlockSizes(t *testing.T) {
	sizes := map[string]int{
		"ref":  16,
		"x86":  16,
		"sse2": 32,
		"avx":  32,
		"avx2": 64,
	}
	for _, rec := range append([]*backendRec{refBackend}, candidates...) {
		want, ok := sizes[rec.name]
		require.True(t, ok, "unknown back-end %s", rec.name)
		require.Equal(t, want, rec.blockBytes, rec.name)
		// Power-of-two block sizes are load-bearing for the bulk floor in
		// Write.
		require.Zero(t, rec.blockBytes&(rec.blockBytes-1), rec.name)
	}
}

func TestCandidatesAreGated(t *testing.T) {
	for _, rec := range candidates {
		require.NotZero(t, rec.need, "candidate %s has no capability requirement", rec.name)
	}
	require.Zero(t, refBackend.need, "reference back-end must always be eligible")
}

func BenchmarkAuth(b *testing.B) {
	sizes := []int{64, 1024, 16384}
	var key [KeySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	for _, rec := range append([]*backendRec{refBackend}, candidates...) {
		for _, size := range sizes {
			msg := make([]byte, size)
			b.Run(fmt.Sprintf("%s/%d", rec.name, size), func(b *testing.B) {
				b.SetBytes(int64(size))
				var mac [TagSize]byte
				for i := 0; i < b.N; i++ {
					rec.auth(&mac, msg, &key)
				}
			})
		}
	}
}
