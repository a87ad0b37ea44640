package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/lockdir/internal/config"
	"github.com/illarion/lockdir/internal/crypto"
	"github.com/illarion/lockdir/internal/keys"
)

// Init creates the keystore up front so the first lock run does not
// silently generate key material.
func Init(opts Options) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		HandleError(err)
	}

	var source keys.Source
	if cfg.UseKeyring {
		source = keys.NewKeyringStore()
	} else {
		source = keys.NewKeystore(cfg.KeystorePath)
	}

	existed := false
	if !cfg.UseKeyring {
		if _, err := os.Stat(cfg.KeystorePath); err == nil {
			existed = true
		}
	}

	master, err := source.LoadOrCreate()
	if err != nil {
		HandleError(err)
	}
	crypto.ClearBytes(master)

	if existed {
		fmt.Printf("Keystore already present at %s\n", source.Location())
	} else {
		fmt.Printf("✓ Created keystore at %s\n", source.Location())
		fmt.Println("Back it up somewhere safe: without it, locked files cannot be recovered.")
	}
}
