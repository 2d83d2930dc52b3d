// Command poly1305sum authenticates a file (or stdin) under a hex-encoded
// 32-byte key and prints the 16-byte tag. Poly1305 keys are single use: a key
// that has authenticated one message must never authenticate another.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/floodyberry/poly1305-opt/poly1305"
)

var (
	keyHex   = flag.String("k", "", "32-byte one-time key, hex encoded")
	selftest = flag.Bool("selftest", false, "run back-end detection and the self-test suite, then exit")
)

func main() {
	flag.Parse()

	if *selftest {
		if !poly1305.Detect() {
			fmt.Fprintln(os.Stderr, "poly1305sum: self-test failed")
			os.Exit(1)
		}
		fmt.Println("ok")
		return
	}

	kb, err := hex.DecodeString(*keyHex)
	if err != nil || len(kb) != poly1305.KeySize {
		fmt.Fprintln(os.Stderr, "poly1305sum: -k must be 64 hex digits")
		os.Exit(1)
	}
	var key [poly1305.KeySize]byte
	copy(key[:], kb)

	if !poly1305.Detect() {
		fmt.Fprintln(os.Stderr, "poly1305sum: self-test failed")
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if flag.NArg() == 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "poly1305sum:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	} else if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "usage: poly1305sum -k <hexkey> [file]")
		os.Exit(1)
	}

	ctx := poly1305.New(&key)
	if _, err := io.Copy(ctx, in); err != nil {
		fmt.Fprintln(os.Stderr, "poly1305sum:", err)
		os.Exit(1)
	}

	var mac [poly1305.TagSize]byte
	ctx.Sum(&mac)
	fmt.Printf("%x\n", mac)
}
