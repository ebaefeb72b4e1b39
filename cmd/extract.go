package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/extract"
	"github.com/sells-group/quote-audit/internal/fetcher"
	"github.com/sells-group/quote-audit/internal/grid"
)

var extractDocument string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract fields from a quote document without validating",
	Long:  "Decodes the document, runs field extraction, and prints the document record as JSON. No CPQ access, no run history.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		doc, err := fetcher.ReadLocal(extractDocument)
		if err != nil {
			return err
		}

		reg, err := extract.LoadRegistry(cfg.Extract.SpecPath)
		if err != nil {
			return eris.Wrap(err, "load field specs")
		}

		gridDoc, err := grid.NewDecoder(cfg.Extract.PdfToTextPath).Decode(ctx, doc.Name, doc.Data)
		if err != nil {
			return eris.Wrapf(err, "decode %s", doc.Name)
		}

		rec := extract.New(reg).Extract(gridDoc)
		zap.L().Info("extraction complete",
			zap.String("document", doc.Name),
			zap.Int("fields_found", rec.Metadata.FieldsFound),
			zap.Int("line_items", len(rec.LineItems)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractDocument, "document", "", "path to the quote document (required)")
	_ = extractCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(extractCmd)
}
