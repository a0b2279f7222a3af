// Package categories handles the category tree command
package categories

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/cmd/common"
	"fjacquet/stmt-categorizer/cmd/root"
	"fjacquet/stmt-categorizer/internal/store"
)

var importFile string

// Cmd represents the categories command
var Cmd = &cobra.Command{
	Use:   "categories",
	Short: "Show the category tree",
	Long: `Show the category tree. With --import, the categories of a YAML or CSV file
replace the stored ones first.`,
	RunE: categoriesFunc,
}

func init() {
	Cmd.Flags().StringVar(&importFile, "import", "", "Replace categories with the content of this YAML or CSV file")
}

func categoriesFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if importFile != "" {
		src := store.NewCategoryStore(importFile, "", "", c.GetLogger())
		cats, err := src.ListCategories(ctx)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			return fmt.Errorf("no categories found in %s", importFile)
		}
		if err := c.ReplaceCategories(ctx, cats); err != nil {
			return fmt.Errorf("failed to save categories: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories\n", len(cats))
	}

	tree, err := c.GetHierarchy().Tree(ctx)
	if err != nil {
		return err
	}
	if len(tree) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No categories defined")
		return nil
	}
	common.PrintTree(cmd.OutOrStdout(), tree)
	return nil
}
