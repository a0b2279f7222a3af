// Package patterns handles the pattern management commands
package patterns

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/cmd/common"
	"fjacquet/stmt-categorizer/cmd/root"
	internalcommon "fjacquet/stmt-categorizer/internal/common"
)

var (
	id         string
	pattern    string
	categoryID string
	priority   int
)

// PatternRow is one line of a pattern import file.
type PatternRow struct {
	Pattern  string `csv:"pattern"`
	Category string `csv:"category_id"`
	Priority int    `csv:"priority"`
}

// Cmd represents the patterns command
var Cmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage categorization patterns",
	Long:  `List, add, remove and import the patterns that categorize descriptions without the AI.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List patterns",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a pattern, or change the one given by --id",
	RunE:  addFunc,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  removeFunc,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Add the patterns of a CSV file (columns pattern, category_id, priority)",
	RunE:  importFunc,
}

func init() {
	addCmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Text to match, case-insensitively")
	addCmd.Flags().StringVarP(&categoryID, "category", "c", "", "Category id or vocabulary token")
	addCmd.Flags().StringVar(&id, "id", "", "Pattern to change instead of adding a new one")
	addCmd.Flags().IntVar(&priority, "priority", 0, "Priority among patterns of equal length")
	_ = addCmd.MarkFlagRequired("pattern")
	_ = addCmd.MarkFlagRequired("category")

	Cmd.AddCommand(listCmd, addCmd, removeCmd, importCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	list := c.GetPatterns().List()
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No patterns defined")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATTERN\tCATEGORY\tPRIORITY")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Pattern, p.CategoryID, p.Priority)
	}
	return w.Flush()
}

func addFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := c.GetHierarchy().Resolve(ctx, categoryID); err != nil {
		return fmt.Errorf("invalid category %q: %w", categoryID, err)
	}
	if id != "" {
		p, err := c.GetPatterns().Update(ctx, id, pattern, categoryID, priority)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated pattern %s\n", p.ID)
		return nil
	}
	p, err := c.GetPatterns().Add(ctx, pattern, categoryID, priority)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added pattern %s\n", p.ID)
	return nil
}

func removeFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	if err := c.GetPatterns().Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed pattern %s\n", args[0])
	return nil
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	if root.SharedFlags.Input == "" {
		return fmt.Errorf("input file is required")
	}
	rows, err := internalcommon.ReadCSVFile[PatternRow](root.SharedFlags.Input, c.GetLogger())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	added := 0
	for i, row := range rows {
		if _, err := c.GetHierarchy().Resolve(ctx, row.Category); err != nil {
			return fmt.Errorf("row %d: invalid category %q: %w", i+1, row.Category, err)
		}
		if _, err := c.GetPatterns().Add(ctx, row.Pattern, row.Category, row.Priority); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		added++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d patterns\n", added)
	return nil
}
