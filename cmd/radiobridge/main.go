// Package main provides the radiobridge command-line interface.
//
// radiobridge carries radio frames between a simulated radio and an external
// peer over a length-prefixed UDP protocol. The serve command runs the bridge
// against an in-process simulated radio; peer plays the external counterpart;
// send injects a single frame.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
