package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homebardev/homebar/internal/state"
	"github.com/homebardev/homebar/internal/ui"
)

var saveNow bool

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Show the ingredient list and what is in stock",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.sess.State()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), st)
		}

		out := cmd.OutOrStdout()
		ui.Header(fmt.Sprintf("Ingredients (%d in stock)", len(st.Inventory)))
		for _, name := range st.SortedMasterIngredients() {
			mark := "  "
			if st.HasInventory(name) {
				mark = ui.Green("✓ ")
			}
			suffix := ""
			if state.IsSpirit(name) {
				suffix = ui.Cyan(" (spirit)")
			}
			fmt.Fprintf(out, "  %s%s%s\n", mark, name, suffix)
		}
		return nil
	},
}

var inventoryToggleCmd = &cobra.Command{
	Use:   "toggle <name>...",
	Short: "Add or remove ingredients from your inventory",
	Example: `  homebar inventory toggle Gin "Lime Juice"
  homebar inventory toggle Campari --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		for _, name := range args {
			owned, err := a.sess.ToggleInventory(cmd.Context(), name)
			if errors.Is(err, state.ErrEmptyName) {
				return err
			}
			if owned {
				ui.Success(fmt.Sprintf("%s is in stock", strings.TrimSpace(name)))
			} else {
				ui.Muted(fmt.Sprintf("%s removed from inventory", strings.TrimSpace(name)))
			}
			if err := reportSave(err); err != nil {
				return err
			}
		}
		return a.finish(cmd)
	},
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new ingredient to the ingredient list",
	Long: `Add an ingredient to the master list. Without a name, prompts for one with
suggestions taken from the drink cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var name string
		switch {
		case len(args) == 1:
			name = args[0]
		case isTerminal():
			name, err = ui.InputIngredient(a.sess.Drinks().IngredientNames())
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("ingredient name required")
		}

		added, err := a.sess.AddIngredient(cmd.Context(), name)
		if errors.Is(err, state.ErrEmptyName) {
			return err
		}
		if added {
			ui.Success(fmt.Sprintf("%s added to the ingredient list", strings.TrimSpace(name)))
		} else {
			ui.Muted(fmt.Sprintf("%s is already on the ingredient list", strings.TrimSpace(name)))
		}
		if err := reportSave(err); err != nil {
			return err
		}
		return a.finish(cmd)
	},
}

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest <text>",
	Short: "Suggest ingredient names from the drink cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		for _, name := range a.sess.Suggest(strings.Join(args, " "), suggestLimit) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	inventoryCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
	inventoryCmd.PersistentFlags().BoolVar(&saveNow, "save", false, "write the user state back after the change")
	inventoryCmd.AddCommand(inventoryToggleCmd)
	inventoryCmd.AddCommand(inventoryAddCmd)

	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 10, "maximum number of suggestions")
}

// finish writes back changes the policy kept in memory when --save is set.
func (a *app) finish(cmd *cobra.Command) error {
	if !a.sess.Dirty() {
		return nil
	}
	if saveNow {
		return saveSession(cmd.Context(), a.sess)
	}
	ui.Muted("Not saved. Re-run with --save to keep this change.")
	return nil
}
