package poly1305

import (
	"bytes"
)

// Known-answer vectors for the power-on self-test. The first is the example
// from NaCl; the second drives the accumulator to 2¹³⁰ - 2, confirming the
// modular wrap; the last folds the tags of 256 derived messages into one
// master authentication.

var naclKey = [KeySize]byte{
	0xee, 0xa6, 0xa7, 0x25, 0x1c, 0x1e, 0x72, 0x91,
	0x6d, 0x11, 0xc2, 0xcb, 0x21, 0x4d, 0x3c, 0x25,
	0x25, 0x39, 0x12, 0x1d, 0x8e, 0x23, 0x4e, 0x65,
	0x2d, 0x65, 0x1f, 0xa4, 0xc8, 0xcf, 0xf8, 0x80,
}

var naclMsg = [131]byte{
	0x8e, 0x99, 0x3b, 0x9f, 0x48, 0x68, 0x12, 0x73,
	0xc2, 0x96, 0x50, 0xba, 0x32, 0xfc, 0x76, 0xce,
	0x48, 0x33, 0x2e, 0xa7, 0x16, 0x4d, 0x96, 0xa4,
	0x47, 0x6f, 0xb8, 0xc5, 0x31, 0xa1, 0x18, 0x6a,
	0xc0, 0xdf, 0xc1, 0x7c, 0x98, 0xdc, 0xe8, 0x7b,
	0x4d, 0xa7, 0xf0, 0x11, 0xec, 0x48, 0xc9, 0x72,
	0x71, 0xd2, 0xc2, 0x0f, 0x9b, 0x92, 0x8f, 0xe2,
	0x27, 0x0d, 0x6f, 0xb8, 0x63, 0xd5, 0x17, 0x38,
	0xb4, 0x8e, 0xee, 0xe3, 0x14, 0xa7, 0xcc, 0x8a,
	0xb9, 0x32, 0x16, 0x45, 0x48, 0xe5, 0x26, 0xae,
	0x90, 0x22, 0x43, 0x68, 0x51, 0x7a, 0xcf, 0xea,
	0xbd, 0x6b, 0xb3, 0x73, 0x2b, 0xc0, 0xe9, 0xda,
	0x99, 0x83, 0x2b, 0x61, 0xca, 0x01, 0xb6, 0xde,
	0x56, 0x24, 0x4a, 0x9e, 0x88, 0xd5, 0xf9, 0xb3,
	0x79, 0x73, 0xf6, 0x22, 0xa4, 0x3d, 0x14, 0xa6,
	0x59, 0x9b, 0x1f, 0x65, 0x4c, 0xb4, 0x5a, 0x74,
	0xe3, 0x55, 0xa5,
}

var naclMac = [TagSize]byte{
	0xf3, 0xff, 0xc7, 0x70, 0x3f, 0x94, 0x00, 0xe5,
	0x2a, 0x7d, 0xfb, 0x4b, 0x3d, 0x33, 0x05, 0xd9,
}

// r = 2, s = 0; sixteen 0xff bytes generate a final value of (2¹³⁰ - 2) == 3.
var wrapKey = [KeySize]byte{
	0x02,
}

var wrapMsg = [16]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

var wrapMac = [TagSize]byte{
	0x03,
}

// mac of the macs of messages of length 0 to 255, where the key and message
// bytes are all set to the length.
var totalKey = [KeySize]byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

var totalMac = [TagSize]byte{
	0x64, 0xaf, 0xe2, 0xe8, 0xd6, 0xad, 0x7b, 0xbd,
	0xd2, 0x87, 0xf9, 0x7c, 0x44, 0x62, 0x3d, 0x39,
}

// selfTestChunks straddles every supported block size so the leftover path
// is exercised at each boundary.
var selfTestChunks = []int{32, 64, 16, 8, 4, 2, 1, 1, 1, 1, 1}

// PowerOnSelfTest runs the known-answer suite against the currently selected
// back-end through the public entry points. It reports whether every check
// passed; all checks run regardless of earlier failures, and repeated calls
// return identical results.
func PowerOnSelfTest() bool {
	result := true
	var mac [TagSize]byte

	Auth(&mac, naclMsg[:], &naclKey)
	if !bytes.Equal(mac[:], naclMac[:]) {
		result = false
	}

	// The same vector streamed with irregular chunking.
	ctx := New(&naclKey)
	off := 0
	for _, n := range selfTestChunks {
		ctx.Write(naclMsg[off : off+n])
		off += n
	}
	ctx.Sum(&mac)
	if !bytes.Equal(mac[:], naclMac[:]) {
		result = false
	}

	Auth(&mac, wrapMsg[:], &wrapKey)
	if !bytes.Equal(mac[:], wrapMac[:]) {
		result = false
	}

	total := New(&totalKey)
	var allKey [KeySize]byte
	var allMsg [256]byte
	for i := 0; i < 256; i++ {
		for j := range allKey {
			allKey[j] = byte(i)
		}
		for j := 0; j < i; j++ {
			allMsg[j] = byte(i)
		}
		Auth(&mac, allMsg[:i], &allKey)
		total.Write(mac[:])
	}
	total.Sum(&mac)
	if !bytes.Equal(mac[:], totalMac[:]) {
		result = false
	}

	return result
}
