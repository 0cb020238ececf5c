package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document or directory",
	Long: `Fingerprints, extracts, chunks, embeds and indexes documents.
A file whose content was already ingested is skipped; pass --force to
re-ingest it. Given a directory, every supported file is processed and
per-file failures never abort the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "re-ingest documents with a known fingerprint")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		results, err := a.ingestor.IngestDir(ctx, path, ingestForce)
		if err != nil {
			return err
		}
		printIngestResults(cmd, results)
		return nil
	}

	res, err := a.ingestor.IngestFile(ctx, path, ingestForce)
	if err != nil {
		return err
	}
	printIngestResults(cmd, []domain.IngestResult{*res})
	return nil
}

func printIngestResults(cmd *cobra.Command, results []domain.IngestResult) {
	ingested, skipped, failed := 0, 0, 0
	for _, res := range results {
		switch res.Status {
		case domain.IngestStatusIngested:
			ingested++
			cmd.Printf("  ingested  %s (%d fragment(s))\n", res.Filename, res.Chunks)
		case domain.IngestStatusSkipped:
			skipped++
			cmd.Printf("  skipped   %s (already ingested)\n", res.Filename)
		case domain.IngestStatusFailed:
			failed++
			cmd.Printf("  failed    %s: %v\n", res.Filename, res.Err)
		}
	}
	cmd.Printf("\n%d ingested, %d skipped, %d failed\n", ingested, skipped, failed)
}
