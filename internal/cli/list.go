package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
	"github.com/homebardev/homebar/internal/ui"
)

var (
	listQuery       string
	listStrength    string
	listInteractive bool
	jsonOutput      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the drinks you can make, best matches first",
	Long: `Rank the drink cache against your inventory. Drinks sharing no ingredient
with the inventory are left out, favorites win ties, and at most 24 drinks are
shown.`,
	Example: `  homebar list
  homebar list --query sour --strength "Low/None"
  homebar list --json | jq '.[0].drink.name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := match.ParseLevel(listStrength)
		if err != nil {
			return err
		}
		if listInteractive && isTerminal() {
			if level, err = ui.SelectStrength(); err != nil {
				return err
			}
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return printResults(cmd.OutOrStdout(), a.sess, match.Filter{Query: listQuery, Strength: level}, jsonOutput)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a drink's ingredients, measures and instructions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		key := strings.Join(args, " ")
		d, ok := a.sess.Detail(key)
		if !ok {
			return fmt.Errorf("drink %q not found", key)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), d)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderDetail(d, 80))
		return nil
	},
}

var favCmd = &cobra.Command{
	Use:   "fav <name>",
	Short: "Toggle a drink as favorite",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		name := strings.Join(args, " ")
		if d, ok := a.sess.Drinks().Lookup(name); ok {
			name = d.Name
		}
		fav, err := a.sess.ToggleFavorite(cmd.Context(), name)
		if fav {
			ui.Success(fmt.Sprintf("%s added to favorites", drinks.CleanName(name)))
		} else {
			ui.Success(fmt.Sprintf("%s removed from favorites", drinks.CleanName(name)))
		}
		return reportSave(err)
	},
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List your favorite drinks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		st := a.sess.State()
		favs := a.sess.Favorites()
		if jsonOutput {
			details := make([]session.Detail, 0, len(favs))
			for _, d := range favs {
				details = append(details, session.BuildDetail(d, st.Inventory, true))
			}
			return writeJSON(out, details)
		}
		if len(st.Favorites) == 0 {
			ui.Muted("No favorites yet. Add one with 'homebar fav <name>'.")
			return nil
		}
		for _, d := range favs {
			fmt.Fprintln(out, ui.RenderDrinkCard(d, st.Inventory, true))
		}
		if missing := len(st.Favorites) - len(favs); missing > 0 {
			ui.Muted(fmt.Sprintf("%d favorite(s) are not in the drink cache", missing))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "only drinks whose name contains this text")
	listCmd.Flags().StringVarP(&listStrength, "strength", "s", "All", "All, Low/None, Medium or High")
	listCmd.Flags().BoolVarP(&listInteractive, "interactive", "i", false, "pick the strength from a menu")
	for _, c := range []*cobra.Command{listCmd, showCmd, favoritesCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	}
}

func printResults(out io.Writer, sess *session.Session, f match.Filter, asJSON bool) error {
	results := sess.Rank(f)
	if asJSON {
		return writeJSON(out, results)
	}

	if status, err := sess.DrinksStatus(); status == drinks.StatusDefaulted {
		ui.Warn(fmt.Sprintf("No drink data: %v. Run 'homebar sync' to fetch it.", err))
		return nil
	}

	inv := sess.State().Inventory
	if len(inv) == 0 {
		ui.Muted("Your bar is empty. Stock something with 'homebar inventory toggle <name>'.")
		return nil
	}
	if len(results) == 0 {
		ui.Muted("No drinks match your bar and filters.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintln(out, ui.RenderCard(r, inv))
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
