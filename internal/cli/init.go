package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/homebardev/homebar/internal/config"
	"github.com/homebardev/homebar/internal/sheet"
	"github.com/homebardev/homebar/internal/ui"
)

var (
	initBackend string
	initPath    string
	initURL     string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file for your backing store",
	Long: `Create ~/.homebar/config.yaml. On a terminal you are asked for the backend
and its location; otherwise the flags are used as given.`,
	Example: `  # Interactive setup
  homebar init

  # Keep the user state in SQLite
  homebar init --backend sqlite --path ~/bar.db

  # Use a homebar server as the backing store
  homebar init --backend http --url https://bar.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := cfgPath
		if target == "" {
			target = config.DefaultPath()
		}

		if _, err := os.Stat(target); err == nil && !initForce {
			if !isTerminal() {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}
			overwrite, err := ui.Confirm(fmt.Sprintf("%s already exists. Overwrite it?", target), false)
			if err != nil {
				return err
			}
			if !overwrite {
				ui.Muted("Left the existing config untouched")
				return nil
			}
		}

		cfg, err := config.Defaults()
		if err != nil {
			return err
		}

		if isTerminal() && !cmd.Flags().Changed("backend") {
			if initBackend, err = ui.SelectOption("Where should your favorites and inventory live?", sheet.Backends); err != nil {
				return err
			}
		}
		if initBackend != "" {
			cfg.Store.Backend = initBackend
		}

		switch cfg.Store.Backend {
		case sheet.BackendHTTP:
			if initURL == "" && isTerminal() {
				if initURL, err = ui.Input("Server URL", "https://bar.example.com"); err != nil {
					return err
				}
			}
			cfg.Store.URL = initURL
			cfg.Store.Path = ""
		default:
			if initPath == "" && isTerminal() {
				if initPath, err = ui.Input("Store file", defaultStoreFile(cfg.Store.Backend)); err != nil {
					return err
				}
			}
			if initPath == "" {
				initPath = defaultStoreFile(cfg.Store.Backend)
			}
			cfg.Store.Path = config.ExpandHome(initPath)
			if !filepath.IsAbs(cfg.Store.Path) {
				cfg.Store.Path = filepath.Join(config.Dir(), cfg.Store.Path)
			}
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(target, cfg); err != nil {
			return err
		}
		ui.Success(fmt.Sprintf("Wrote %s", target))
		ui.Muted("Run 'homebar sync' to fetch the drink cache, then 'homebar doctor' to check everything.")
		return nil
	},
}

func defaultStoreFile(backend string) string {
	switch backend {
	case sheet.BackendJSON:
		return "homebar.json"
	case sheet.BackendSQLite:
		return "homebar.db"
	default:
		return "homebar.xlsx"
	}
}

func init() {
	initCmd.Flags().SortFlags = false
	initCmd.Flags().StringVar(&initBackend, "backend", "", "backing store: "+fmt.Sprint(sheet.Backends))
	initCmd.Flags().StringVar(&initPath, "path", "", "store file for the xlsx, json and sqlite backends")
	initCmd.Flags().StringVar(&initURL, "url", "", "server URL for the http backend")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
}
