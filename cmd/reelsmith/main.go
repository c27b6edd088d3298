package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// Interrupted runs exit with the conventional SIGINT code and stay quiet;
	// the worker already logged whatever it was doing when the signal landed.
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "reelsmith:", err)
	os.Exit(1)
}
