package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/homebardev/homebar/internal/config"
	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/ui"
)

var skipNetwork bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check your setup and diagnose issues",
	Long: `Run diagnostic checks on your homebar setup.

Checks performed:
- Config file
- Drink cache
- Backing store and the user state it holds
- TheCocktailDB reachability`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&skipNetwork, "offline", false, "skip the network check")
}

type checkResult struct {
	name    string
	status  string
	message string
}

func runDoctor(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out)
	ui.Header("Homebar Doctor")
	fmt.Fprintln(out)

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(out, "  %s %s: %s\n", ui.Red("✗"), "Config", err)
		return err
	}
	defer a.Close()

	var results []checkResult
	var issues int

	results = append(results, checkConfig(a.cfg))
	results = append(results, checkDrinkCache(a)...)
	results = append(results, checkStore(a)...)
	if !skipNetwork {
		results = append(results, checkAPI(ctx, a.cfg.Sync.APIURL))
	}

	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Fprintf(out, "  %s %s\n", ui.Green("✓"), r.name)
		case "warn":
			fmt.Fprintf(out, "  %s %s: %s\n", ui.Yellow("!"), r.name, r.message)
			issues++
		case "error":
			fmt.Fprintf(out, "  %s %s: %s\n", ui.Red("✗"), r.name, r.message)
			issues++
		case "info":
			fmt.Fprintf(out, "  %s %s: %s\n", ui.Cyan("i"), r.name, r.message)
		}
	}

	fmt.Fprintln(out)
	if issues == 0 {
		ui.Success("All checks passed! Your bar is ready.")
	} else {
		ui.Muted(fmt.Sprintf("Found %d issue(s).", issues))
	}
	fmt.Fprintln(out)

	return nil
}

func checkConfig(cfg *config.Config) checkResult {
	if cfg.Source == "" {
		return checkResult{
			name:    "Config",
			status:  "info",
			message: "no config file, using built-in defaults (run 'homebar init')",
		}
	}
	return checkResult{name: fmt.Sprintf("Config (%s)", cfg.Source), status: "ok"}
}

func checkDrinkCache(a *app) []checkResult {
	status, err := a.sess.DrinksStatus()
	if status == drinks.StatusDefaulted {
		return []checkResult{{
			name:    "Drink cache",
			status:  "error",
			message: fmt.Sprintf("%v (run 'homebar sync')", err),
		}}
	}

	n := a.sess.Drinks().Len()
	if n == 0 {
		return []checkResult{{
			name:    "Drink cache",
			status:  "warn",
			message: "no drinks (run 'homebar sync')",
		}}
	}
	return []checkResult{{
		name:   fmt.Sprintf("Drink cache (%d drinks)", n),
		status: "ok",
	}}
}

func checkStore(a *app) []checkResult {
	backend := a.cfg.Store.Backend
	if a.store == nil {
		return []checkResult{{
			name:    fmt.Sprintf("Backing store (%s)", backend),
			status:  "error",
			message: "could not be opened, see the log for details",
		}}
	}

	status, err := a.sess.StateStatus()
	if status == drinks.StatusDefaulted {
		return []checkResult{{
			name:    fmt.Sprintf("Backing store (%s)", backend),
			status:  "warn",
			message: fmt.Sprintf("user state unreadable, using defaults: %v", err),
		}}
	}

	st := a.sess.State()
	results := []checkResult{{
		name:   fmt.Sprintf("Backing store (%s)", backend),
		status: "ok",
	}}
	results = append(results, checkResult{
		name:    "User state",
		status:  "info",
		message: fmt.Sprintf("%d favorites, %d in stock, %d ingredients", len(st.Favorites), len(st.Inventory), len(st.MasterIngredients)),
	})

	var unknown int
	for _, name := range st.Favorites {
		if _, ok := a.sess.Drinks().FindByName(name); !ok {
			unknown++
		}
	}
	if unknown > 0 && a.sess.Drinks().Len() > 0 {
		results = append(results, checkResult{
			name:    "Favorites",
			status:  "warn",
			message: fmt.Sprintf("%d favorite(s) not found in the drink cache", unknown),
		})
	}
	return results
}

func checkAPI(ctx context.Context, apiURL string) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/search.php?f=a", nil)
	if err != nil {
		return checkResult{name: "TheCocktailDB", status: "error", message: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return checkResult{name: "TheCocktailDB", status: "warn", message: "unreachable, sync will fail"}
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return checkResult{name: "TheCocktailDB", status: "warn", message: fmt.Sprintf("returned HTTP %d", resp.StatusCode)}
	}
	return checkResult{name: "TheCocktailDB reachable", status: "ok"}
}
