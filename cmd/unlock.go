package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/lockdir/internal/engine"
)

// Unlock decrypts every file recorded as encrypted under the given
// roots, or under the configured roots when none are given. With all
// set, every eligible file is attempted regardless of manifest state;
// files that fail verification are left untouched.
func Unlock(ctx context.Context, opts Options, roots []string, all bool) {
	a, err := setup(opts)
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if len(roots) == 0 {
		roots = a.cfg.Roots
	}
	if len(roots) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no roots to unlock\n")
		fmt.Fprintf(os.Stderr, "Pass paths as arguments or set 'roots' in the config file\n")
		os.Exit(1)
	}

	a.engine.DecryptAll = all

	spin, stopSpinner := startSpinner("Decrypting files...", opts.Verbose)
	a.engine.Progress = func(path string) {
		spin.Suffix = " Decrypting " + path
	}

	result, err := a.engine.Walk(ctx, roots, engine.OpDecrypt)
	stopSpinner()
	if err != nil && !errors.Is(err, context.Canceled) {
		HandleError(err)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "interrupted")
	}

	printSummary("unlocked", result)
}
