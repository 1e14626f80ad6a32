package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homebardev/homebar/internal/cocktaildb"
	"github.com/homebardev/homebar/internal/config"
	"github.com/homebardev/homebar/internal/logging"
	"github.com/homebardev/homebar/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local drink cache from TheCocktailDB",
	Long: `Fetch every drink listed by TheCocktailDB, one request per first letter,
and merge the results into the local drink cache. Drinks already in the cache
keep their place and any strength tag; new drinks are appended.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Path)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		progress := ui.NewProgress(len(cocktaildb.Letters))
		client := cocktaildb.NewClient(cocktaildb.Options{
			BaseURL:           cfg.Sync.APIURL,
			Concurrency:       cfg.Sync.Concurrency,
			RequestsPerSecond: cfg.Sync.RequestsPerSecond,
			Timeout:           cfg.Sync.Timeout,
			Logger:            logger,
			OnLetter: func(letter string, n int) {
				progress.Increment(fmt.Sprintf("%s (%d)", strings.ToUpper(letter), n))
			},
		})

		ui.Info(fmt.Sprintf("Syncing drinks from %s", cfg.Sync.APIURL))
		progress.Start()
		res, err := client.Sync(cmd.Context(), cfg.DrinksPath)
		progress.Finish()
		if err != nil {
			logger.Error("sync failed", zap.Error(err))
			ui.Error("Sync failed, the drink cache was left unchanged")
			return err
		}

		ui.Success(fmt.Sprintf("%d drinks in %s (%d new)", res.Total, res.Path, res.Added))
		return nil
	},
}
