package poly1305

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// engine is the per-message arithmetic state of a back-end. blocks absorbs a
// nonzero multiple of the back-end's native block size; finish absorbs a tail
// shorter than one native block, applies the end-of-message padding, and
// emits the tag. Both are constant-time in key and message content.
type engine interface {
	blocks(m []byte)
	finish(tail []byte, mac *[TagSize]byte)
}

// backendRec describes one back-end: its capability requirements, native
// block size, streaming state constructor, and fused one-shot.
type backendRec struct {
	name       string
	need       uint32
	blockBytes int
	newEngine  func(key *[KeySize]byte, bytesHint uint64) engine
	auth       func(mac *[TagSize]byte, m []byte, key *[KeySize]byte)
}

// Host capability bits, in priority order of the extensions that use them.
const (
	cpuidMMX uint32 = 1 << iota
	cpuidSSE
	cpuidSSE2
	cpuidSSE3
	cpuidSSSE3
	cpuidSSE41
	cpuidSSE42
	cpuidAVX
	cpuidXOP
	cpuidAVX2
)

// cpuFlags reports the host capability bitmask. The detection primitive is
// golang.org/x/sys/cpu; this maps its fields onto the bit layout, and sets
// the baseline MMX and SSE bits from GOARCH on 386 and amd64.
func cpuFlags() uint32 {
	var flags uint32
	if runtime.GOARCH == "386" || runtime.GOARCH == "amd64" {
		flags |= cpuidMMX | cpuidSSE
	}
	if cpu.X86.HasSSE2 {
		flags |= cpuidSSE2
	}
	if cpu.X86.HasSSE3 {
		flags |= cpuidSSE3
	}
	if cpu.X86.HasSSSE3 {
		flags |= cpuidSSSE3
	}
	if cpu.X86.HasSSE41 {
		flags |= cpuidSSE41
	}
	if cpu.X86.HasSSE42 {
		flags |= cpuidSSE42
	}
	if cpu.X86.HasAVX {
		flags |= cpuidAVX
	}
	if cpu.X86.HasAVX2 {
		flags |= cpuidAVX2
	}
	return flags
}

var (
	refBackend = &backendRec{
		name:       "ref",
		need:       0,
		blockBytes: refBlockSize,
		newEngine:  newRefEngine,
		auth:       refAuth,
	}
	x86Backend = &backendRec{
		name:       "x86",
		need:       cpuidMMX | cpuidSSE,
		blockBytes: 16,
		newEngine:  newWideEngine(1),
		auth:       wideAuth(1),
	}
	sse2Backend = &backendRec{
		name:       "sse2",
		need:       cpuidSSE2,
		blockBytes: 32,
		newEngine:  newWideEngine(2),
		auth:       wideAuth(2),
	}
	avxBackend = &backendRec{
		name:       "avx",
		need:       cpuidAVX,
		blockBytes: 32,
		newEngine:  newWideEngine(2),
		auth:       wideAuth(2),
	}
	avx2Backend = &backendRec{
		name:       "avx2",
		need:       cpuidAVX2,
		blockBytes: 64,
		newEngine:  newWideEngine(4),
		auth:       wideAuth(4),
	}
)

// candidates is walked in ascending capability order; the last one to pass
// the self-test wins.
var candidates = []*backendRec{x86Backend, sse2Backend, avxBackend, avx2Backend}

// best is the process-wide selected back-end. It defaults to the reference
// back-end and is rewritten only by Detect, which is not safe against
// concurrent authentication; call it before spawning workers. Afterwards
// best is effectively read-only.
var best = refBackend

// Detect queries host capabilities and walks the candidate back-ends from
// least to most capable. Each eligible candidate is temporarily installed
// and run through the full self-test suite; it stays installed only if every
// check passed. Detect reports whether all attempted back-ends, including
// the reference, passed. A false result with the reference back-end failing
// means the authenticator is non-functional.
func Detect() bool {
	flags := cpuFlags()

	best = refBackend
	result := PowerOnSelfTest()

	for _, c := range candidates {
		if flags&c.need != c.need {
			continue
		}
		prev := best
		best = c
		if !PowerOnSelfTest() {
			result = false
			best = prev
		}
	}

	return result
}
