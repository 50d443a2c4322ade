package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/config"
	"github.com/sigexhq/sigex-cli/internal/fetch"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the sigex state directory",
	Long: `Initialize ~/.sigex/: write the default config and .env template,
create the collaboration, state and index directories, and register the
built-in sample collaboration so 'sigex fetch' works out of the box.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	sigexDir, err := config.SigexDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(sigexDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", sigexDir, err)
	}
	printOK("", fmt.Sprintf("sigex directory ready: %s", sigexDir))

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}

	// Ship a ready-to-fetch sample collaboration so the first fetch has
	// something to pull.
	sample := &fetch.Collab{
		Name:    "sample-signals",
		API:     fetch.SampleAPIName,
		Enabled: true,
	}
	if _, err := env.collabs.Get(sample.Name); err != nil {
		if err := env.collabs.Save(sample); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Sample collaboration registered: %s", sample.Name))
	} else {
		printSkip("", fmt.Sprintf("Sample collaboration already registered: %s", sample.Name))
	}

	fmt.Println("\n✓  sigex init complete. Run 'sigex fetch' to pull the sample signals.")
	return nil
}
