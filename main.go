package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/lockdir/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "lock":
		runLock(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet) *cmd.Options {
	opts := &cmd.Options{}
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to TOML config file")
	fs.StringVar(&opts.Algorithm, "algo", "", "AEAD algorithm: aes-256-gcm or chacha20-poly1305")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Echo info log lines to stdout")
	fs.BoolVar(&opts.Debug, "debug", false, "Echo debug log lines to stdout")
	return opts
}

func runInit(_ context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	opts := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Init(*opts)
}

func runLock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	opts := commonFlags(fs)
	force := fs.Bool("force", false, "Lock without confirmation")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Lock(ctx, *opts, fs.Args(), *force)
}

func runUnlock(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	opts := commonFlags(fs)
	all := fs.Bool("all", false, "Attempt every eligible file, not only manifest-recorded ones")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Unlock(ctx, *opts, fs.Args(), *all)
}

func runStatus(_ context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	opts := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Status(*opts)
}

func printUsage() {
	fmt.Println("lockdir - In-place directory encryption with per-file keys")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lockdir <command> [flags] [paths...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init     Create the keystore")
	fmt.Println("  lock     Encrypt eligible files under the given (or configured) roots")
	fmt.Println("  unlock   Decrypt locked files under the given (or configured) roots")
	fmt.Println("  status   Show what is currently encrypted and recent runs")
	fmt.Println("  help     Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  lockdir init                     # Create the keystore up front")
	fmt.Println("  lockdir lock ~/projects/secrets  # Encrypt a directory tree")
	fmt.Println("  lockdir unlock ~/projects/secrets")
	fmt.Println("  lockdir status --verbose         # List encrypted files")
	fmt.Println()
	fmt.Println("Use 'lockdir help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("lockdir init [--config <file>]")
		fmt.Println()
		fmt.Println("Creates the keystore: 32 random bytes at the configured path")
		fmt.Println("with owner-only permissions, or an OS keyring entry when")
		fmt.Println("use_keyring is set. Running init twice is harmless; an existing")
		fmt.Println("keystore is never overwritten.")
	case "lock":
		fmt.Println("lockdir lock [--force] [--algo <mode>] [--config <file>] [paths...]")
		fmt.Println()
		fmt.Println("Encrypts every eligible regular file under the given roots in")
		fmt.Println("place. Each file gets its own key derived from the master secret")
		fmt.Println("and the file's path. Without path arguments the configured roots")
		fmt.Println("are used. Asks for confirmation on a terminal; --force skips the")
		fmt.Println("question and is required when stdin is not a terminal.")
		fmt.Println()
		fmt.Println("A file that fails is logged and skipped; the run continues and")
		fmt.Println("exits zero. Check the log file for per-file errors.")
	case "unlock":
		fmt.Println("lockdir unlock [--all] [--algo <mode>] [--config <file>] [paths...]")
		fmt.Println()
		fmt.Println("Decrypts files under the given roots that the manifest records")
		fmt.Println("as encrypted. With --all every eligible file is attempted; files")
		fmt.Println("that fail authentication are left untouched, so --all is safe")
		fmt.Println("when the manifest was lost.")
	case "status":
		fmt.Println("lockdir status [--verbose] [--config <file>]")
		fmt.Println()
		fmt.Println("Shows how many files are currently encrypted and summarizes")
		fmt.Println("recent runs. Reads only the manifest; does not require the")
		fmt.Println("keystore and never touches file contents.")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
