package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var name string
	var withGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new household directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, withGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "household name (required)")
	cmd.Flags().BoolVar(&withGit, "git", false, "initialize a git repository and commit the skeleton")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runInit(out io.Writer, dir, name string, withGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	dirs := []string{
		"data",
		"ledger",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := "data/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	env := "TELEGRAM_BOT_TOKEN=\nTELEGRAM_CHAT_ID=\nDATABASE_URL=\nAPI_TOKEN=\n"
	if err := os.WriteFile(filepath.Join(dir, ".env.example"), []byte(env), 0o644); err != nil {
		return fmt.Errorf("writing .env.example: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if withGit {
		if err := gitops.Init(dir); err != nil {
			return err
		}
		hash, err := gitops.CommitPaths(dir, "init: "+name, gitops.DefaultAuthor,
			config.FileName, ".gitignore", ".env.example", filepath.Join("import", ".gitkeep"))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Committed skeleton as %s\n", hash)
	}

	fmt.Fprintf(out, "Initialized FINHOUSE household %q at %s\n", name, dir)
	return nil
}
