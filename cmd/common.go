package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"

	"github.com/illarion/lockdir/internal/config"
	"github.com/illarion/lockdir/internal/engine"
	"github.com/illarion/lockdir/internal/keys"
	"github.com/illarion/lockdir/internal/logging"
	"github.com/illarion/lockdir/internal/manifest"
)

// Options are the flags shared by lock and unlock.
type Options struct {
	ConfigPath string
	Algorithm  string // overrides the configured AEAD mode when set
	Verbose    bool
	Debug      bool
}

// app bundles the components one command run needs.
type app struct {
	cfg     config.Config
	log     *logging.Logger
	deriver *keys.Deriver
	man     *manifest.Manifest
	engine  *engine.Engine
}

// setup resolves configuration and constructs the engine. Keystore
// failure is fatal here: without a master key no per-file recovery is
// possible.
func setup(opts Options) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Algorithm != "" {
		cfg.Algorithm = opts.Algorithm
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log := logging.New(cfg.LogPath, opts.Verbose)
	log.Debug = opts.Debug

	var source keys.Source
	if cfg.UseKeyring {
		source = keys.NewKeyringStore()
	} else {
		source = keys.NewKeystore(cfg.KeystorePath)
	}

	master, err := source.LoadOrCreate()
	if err != nil {
		log.Close()
		return nil, err
	}

	deriver, err := keys.NewDeriver(master, cfg.ScryptParams())
	if err != nil {
		log.Close()
		return nil, err
	}

	// State tracking is best-effort: a broken manifest downgrades the
	// run instead of stopping it.
	man, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		log.Warnf("Running without manifest: %v", err)
		man = nil
	}

	return &app{
		cfg:     cfg,
		log:     log,
		deriver: deriver,
		man:     man,
		engine:  engine.New(cfg, deriver, man, log),
	}, nil
}

// Close releases the run's resources and zeroes key material.
func (a *app) Close() {
	a.deriver.Close()
	if a.man != nil {
		a.man.Close()
	}
	a.log.Close()
}

// HandleError prints a command-level error and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, keys.ErrKeystoreUnavailable):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Check the keystore path in your config, or run 'lockdir init'\n")
	case errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Fix the config file or flags and try again\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

// stdinIsTerminal reports whether the command can ask questions.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question, defaulting to no.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// startSpinner shows a progress spinner on interactive terminals. The
// returned cleanup stops it. Verbose mode disables the spinner so log
// echo lines stay readable.
func startSpinner(msg string, verbose bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + msg

	if !verbose && term.IsTerminal(int(os.Stdout.Fd())) {
		s.Start()
		return s, func() { s.Stop() }
	}
	return s, func() {}
}

// printSummary reports a walk's outcome in one line per bucket.
func printSummary(op string, result *engine.WalkResult) {
	fmt.Printf("\n")
	if result.Processed > 0 {
		fmt.Printf("%s: %d files\n", op, result.Processed)
	}
	if result.Skipped > 0 {
		fmt.Printf("skipped: %d files\n", result.Skipped)
	}
	if result.Failed > 0 {
		fmt.Printf("failed: %d files (see log for details)\n", result.Failed)
	}
	if result.Processed == 0 && result.Skipped == 0 && result.Failed == 0 {
		fmt.Println("nothing to do")
	}
}
