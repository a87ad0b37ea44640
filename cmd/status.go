package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/illarion/lockdir/internal/config"
	"github.com/illarion/lockdir/internal/manifest"
)

// Status summarizes the manifest: which files are currently encrypted
// and how recent runs went. It does not touch the keystore or any file
// contents.
func Status(opts Options) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		HandleError(err)
	}

	if _, err := os.Stat(cfg.ManifestPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No manifest found; nothing has been locked yet")
			return
		}
		HandleError(err)
	}

	man, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		HandleError(err)
	}
	defer man.Close()

	entries, err := man.EncryptedFiles()
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Encrypted files: %d\n", len(entries))
	if opts.Verbose {
		for _, entry := range entries {
			fmt.Printf("  %s (%d bytes, %s, %s)\n",
				entry.Path, entry.Size, entry.Algorithm,
				entry.EncryptedAt.Format(time.RFC3339))
		}
	}

	runs, err := man.Runs()
	if err != nil {
		HandleError(err)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.After(runs[j].Started)
	})

	const show = 5
	fmt.Printf("\nRecent runs:\n")
	if len(runs) == 0 {
		fmt.Println("  (none)")
	}
	for i, run := range runs {
		if i >= show {
			fmt.Printf("  ... and %d more\n", len(runs)-show)
			break
		}
		fmt.Printf("  %s %s: %d processed, %d skipped, %d failed\n",
			run.Started.Format("2006-01-02 15:04:05"), run.Op,
			run.Processed, run.Skipped, run.Failed)
	}
}
