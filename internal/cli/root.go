package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/homebardev/homebar/internal/config"
	"github.com/homebardev/homebar/internal/logging"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
	"github.com/homebardev/homebar/internal/sheet"
	"github.com/homebardev/homebar/internal/ui"
)

var (
	version = "dev"
	cfgPath string
)

// isTerminal is swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var rootCmd = &cobra.Command{
	Use:   "homebar",
	Short: "Find the cocktails you can make with what is in your bar",
	Long: `Homebar - cocktail recommender for your home bar

Ranks drinks from a local cocktail cache by how many of their ingredients you
have, keeps your favorites, inventory and ingredient list in a spreadsheet
(or JSON, SQLite or a homebar server), and syncs the cache from TheCocktailDB.`,
	Example: `  # Browse interactively
  homebar

  # What can I make with gin?
  homebar list --query gin --strength high

  # Stock an ingredient and save right away
  homebar inventory toggle "Lime Juice" --save

  # Refresh the drink cache
  homebar sync`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !isTerminal() {
			return printResults(cmd.OutOrStdout(), a.sess, match.Filter{Strength: match.LevelAll}, false)
		}
		if err := ui.RunBrowser(cmd.Context(), a.sess); err != nil {
			return err
		}
		return a.offerSave(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.homebar/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(favCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetUsageTemplate(usageTemplate)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Homebar v%s\n", version)
	},
}

// app is what every command works with: the effective config, the logger,
// the opened backing store and the session on top of them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  sheet.Store
	sess   *session.Session
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return nil, err
	}

	store, err := sheet.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		logger.Warn("backing store unavailable", zap.String("backend", cfg.Store.Backend), zap.Error(err))
		store = nil
	}

	sess := session.Open(ctx, session.Options{
		DrinksPath: cfg.DrinksPath,
		Store:      store,
		Policy: session.Policy{
			PersistFavorites:   cfg.Persist.Favorites,
			PersistInventory:   cfg.Persist.Inventory,
			PersistIngredients: cfg.Persist.Ingredients,
		},
		WriteRetries: cfg.Store.WriteRetries,
		RetryBackoff: cfg.Store.RetryBackoff,
		Logger:       logger,
	})

	return &app{cfg: cfg, logger: logger, store: store, sess: sess}, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := sheet.Close(a.store); err != nil {
			a.logger.Warn("failed to close backing store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// offerSave asks whether to write back changes the policy kept in memory.
func (a *app) offerSave(ctx context.Context) error {
	if !a.sess.Dirty() {
		return nil
	}
	save, err := ui.Confirm("You have unsaved inventory or ingredient changes. Save them?", true)
	if err != nil || !save {
		ui.Warn("Unsaved changes discarded")
		return nil
	}
	return saveSession(ctx, a.sess)
}

func saveSession(ctx context.Context, sess *session.Session) error {
	if err := sess.Save(ctx); err != nil {
		ui.Error("Could not save your changes")
		return err
	}
	ui.Success("Saved")
	return nil
}

// reportSave turns a failed automatic save into a warning plus a non-zero
// exit while keeping the command's own output.
func reportSave(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrSaveFailed) {
		ui.Warn("The change was applied but could not be saved")
	}
	return err
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
