// Package categorize handles transaction categorization commands
package categorize

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/cmd/common"
	"fjacquet/stmt-categorizer/cmd/root"
)

var (
	description string
	confirm     bool
	categoryID  string
	pattern     string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single operation description",
	Long: `Categorize an operation description using patterns, keyword rules and the
AI classifier. With --confirm, the given category is recorded as a pattern so
that matching descriptions are categorized without the AI from now on.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Operation description to categorize")
	Cmd.Flags().BoolVar(&confirm, "confirm", false, "Record --category for this description as a pattern")
	Cmd.Flags().StringVarP(&categoryID, "category", "c", "", "Category id or vocabulary token to confirm")
	Cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Text to match (defaults to the whole description)")
	_ = Cmd.MarkFlagRequired("description")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if confirm {
		if categoryID == "" {
			return fmt.Errorf("--category is required with --confirm")
		}
		p, err := c.GetCategorizer().Confirm(cmd.Context(), description, pattern, categoryID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pattern %q -> %s saved (%s)\n", p.Pattern, p.CategoryID, p.ID)
		return nil
	}

	result, err := c.GetImporter().CategorizeOne(cmd.Context(), description)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Category: %s (%s)\n", result.Category.Label(), result.Category)
	if result.CategoryID != "" {
		fmt.Fprintf(out, "Category id: %s\n", result.CategoryID)
	}
	fmt.Fprintf(out, "Source: %s (confidence %.2f)\n", result.Source, result.Confidence)
	return nil
}
