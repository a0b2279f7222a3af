// Package ingest handles the statement import command
package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/cmd/common"
	"fjacquet/stmt-categorizer/cmd/root"
	"fjacquet/stmt-categorizer/internal/logging"
)

var (
	format  string
	save    bool
	retries int
)

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import a bank statement and categorize its operations",
	Long: `Import a Fortuneo or BoursoBank statement (PDF or text export), extract its
operations and categorize each one. Use --save to keep the import in the
record store.`,
	RunE: ingestFunc,
}

func init() {
	Cmd.Flags().StringVar(&format, "format", "auto", "Statement format: auto, fortuneo or boursobank")
	Cmd.Flags().BoolVar(&save, "save", false, "Persist the import and publish an import event")
	Cmd.Flags().IntVar(&retries, "retry", 0, "Retry failed operations up to this many times")
}

func ingestFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := c.GetLogger()

	doc, err := common.ReadDocument(ctx, c.GetPDFExtractor(), root.SharedFlags.Input, format)
	if err != nil {
		return err
	}

	importer := c.GetImporter()
	report, err := importer.Import(ctx, doc)
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", doc.Filename, err)
	}
	for i := 0; i < retries && report.Failed() > 0; i++ {
		logger.Info("Retrying failed operations",
			logging.Field{Key: logging.FieldCount, Value: report.Failed()})
		if err := importer.Retry(ctx, report); err != nil {
			return err
		}
	}

	common.PrintReport(cmd.OutOrStdout(), report)

	if save {
		if err := importer.Save(ctx, report); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved import %s\n", report.ID)
	}
	return nil
}
