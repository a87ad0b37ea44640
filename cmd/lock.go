package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/lockdir/internal/engine"
)

// Lock encrypts every eligible file under the given roots, or under the
// configured roots when none are given.
func Lock(ctx context.Context, opts Options, roots []string, force bool) {
	a, err := setup(opts)
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if len(roots) == 0 {
		roots = a.cfg.Roots
	}
	if len(roots) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no roots to lock\n")
		fmt.Fprintf(os.Stderr, "Pass paths as arguments or set 'roots' in the config file\n")
		os.Exit(1)
	}

	// Encrypting a tree is hard to walk back without the keystore, so
	// ask first unless the caller explicitly opted out.
	if !force {
		if !stdinIsTerminal() {
			fmt.Fprintf(os.Stderr, "Error: refusing to lock without confirmation; use --force in scripts\n")
			os.Exit(1)
		}
		fmt.Printf("Roots to lock:\n")
		for _, root := range roots {
			fmt.Printf("  - %s\n", root)
		}
		if !confirm(fmt.Sprintf("Encrypt all eligible files under %d root(s)?", len(roots))) {
			fmt.Println("Cancelled")
			return
		}
	}

	spin, stopSpinner := startSpinner("Encrypting files...", opts.Verbose)
	a.engine.Progress = func(path string) {
		spin.Suffix = " Encrypting " + path
	}

	result, err := a.engine.Walk(ctx, roots, engine.OpEncrypt)
	stopSpinner()
	if err != nil && !errors.Is(err, context.Canceled) {
		HandleError(err)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "interrupted")
	}

	printSummary("locked", result)
}
