// Package poly1305 implements the Poly1305 one-time message authenticator
// with runtime-selected arithmetic back-ends. A 32-byte single-use key and a
// message of any length produce a 16-byte tag. Authenticating two distinct
// messages under the same key completely breaks the authenticator; upholding
// single use is the caller's contract.
//
// The package ships a portable reference back-end and wider-block back-ends
// keyed to x86 CPU capabilities. Detect probes the host, runs every eligible
// back-end through the power-on self-test suite, and promotes the most
// capable one that passed; until Detect is called the reference back-end is
// used.
package poly1305

import (
	"crypto/subtle"
)

const (
	// KeySize is the size, in bytes, of a one-time key.
	KeySize = 32
	// TagSize is the size, in bytes, of an authenticator tag.
	TagSize = 16

	// The staging buffer covers the widest native block size.
	maxBlockSize = 64
)

// Context is the streaming state of an in-progress authentication. It adapts
// byte-granular writes onto the block granularity of the bound back-end,
// staging bytes that do not yet form a whole block. A Context must not be
// used concurrently; distinct Contexts are independent.
type Context struct {
	eng       engine
	buffer    [maxBlockSize]byte
	leftover  int
	blockSize int
}

// New returns a streaming Context bound to the currently selected back-end.
// The key must be used for one message only.
func New(key *[KeySize]byte) *Context {
	return NewWithHint(key, 0)
}

// NewWithHint is New with a total-length hint for the back-end. A hint of 0
// means unknown. The hint never changes the resulting tag.
func NewWithHint(key *[KeySize]byte, bytesHint uint64) *Context {
	b := best
	return &Context{
		eng:       b.newEngine(key, bytesHint),
		blockSize: b.blockBytes,
	}
}

// Write appends p to the authenticated stream. It never fails; the error is
// there to satisfy io.Writer. Calling Write after Sum is undefined.
func (c *Context) Write(p []byte) (int, error) {
	n := len(p)

	// Top up a partially filled staging buffer first, flushing if it fills.
	if c.leftover > 0 {
		want := c.blockSize - c.leftover
		if want > len(p) {
			want = len(p)
		}
		copy(c.buffer[c.leftover:], p[:want])
		p = p[want:]
		c.leftover += want
		if c.leftover < c.blockSize {
			return n, nil
		}
		c.eng.blocks(c.buffer[:c.blockSize])
		c.leftover = 0
	}

	// Hand whole blocks to the back-end without copying.
	if len(p) >= c.blockSize {
		want := len(p) &^ (c.blockSize - 1)
		c.eng.blocks(p[:want])
		p = p[want:]
	}

	// Stage the tail. leftover is zero whenever this runs; the offset form
	// matches the reference implementation.
	if len(p) > 0 {
		copy(c.buffer[c.leftover:], p)
		c.leftover += len(p)
	}

	return n, nil
}

// Sum finalizes the stream and writes the tag to mac. It consumes the
// Context: the staging buffer is zeroized, the back-end unbound, and any
// further use of the Context is undefined.
func (c *Context) Sum(mac *[TagSize]byte) {
	c.eng.finish(c.buffer[:c.leftover], mac)
	for i := range c.buffer {
		c.buffer[i] = 0
	}
	c.leftover = 0
	c.eng = nil
}

// Auth writes the tag of m under key to mac in one shot, bypassing the
// streaming buffer.
func Auth(mac *[TagSize]byte, m []byte, key *[KeySize]byte) {
	best.auth(mac, m, key)
}

// Verify authenticates m under key and compares the result against mac in
// constant time.
func Verify(mac *[TagSize]byte, m []byte, key *[KeySize]byte) bool {
	var tmp [TagSize]byte
	Auth(&tmp, m, key)
	return subtle.ConstantTimeCompare(tmp[:], mac[:]) == 1
}
