package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete a document and its fragments",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.ingestor.ListDocuments(ctx)
	if err != nil {
		return err
	}

	if documentsJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for _, rec := range records {
		cmd.Printf("  %s  %d fragment(s)  %s\n",
			rec.Filename, rec.Chunks, rec.IngestedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\n%d document(s)\n", len(records))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	filename := args[0]
	if err := a.ingestor.DeleteDocument(ctx, filename); err != nil {
		return err
	}
	cmd.Printf("deleted %s\n", filename)
	return nil
}
