package commands

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cpg/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gcpg configuration interactively",
	Long: `Guides you through setting up gcpg configuration step by step and writes
a project-level config file (.gcpg/config.yaml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default language dialect").
				Description("Used for headers and files without a dialect marker").
				Options(
					huh.NewOption("C++", "cpp"),
					huh.NewOption("C", "c"),
				).
				Value(&cfg.Language),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Resolve typedef aliases during type canonicalization?").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.ResolveAliases),
			huh.NewConfirm().
				Title("Cache lowered units on disk?").
				Description("Unchanged files are served from a content-hash cache").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.CacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite output path for `gcpg export`").
				Placeholder("cpg.db").
				Value(&cfg.DBPath),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	path := ".gcpg/config.yaml"
	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
