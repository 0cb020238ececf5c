package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkanlabs/docchat/internal/core/domain"
)

var (
	askSession  string
	askTopK     int
	askFilename string
	askNoStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant document fragments, composes a grounded
prompt and generates an answer. Pass --session to continue an earlier
conversation; without it each invocation starts a fresh session.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of fragments to retrieve")
	askCmd.Flags().StringVar(&askFilename, "filename", "", "restrict retrieval to one document")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "wait for the complete answer instead of streaming")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	req := domain.AskRequest{
		Question:       args[0],
		SessionID:      askSession,
		TopK:           askTopK,
		FilenameFilter: askFilename,
	}

	if askNoStream {
		answer, err := a.orchestrator.Ask(ctx, req)
		if err != nil {
			return err
		}
		cmd.Println(answer.Text)
		printSources(cmd, answer.Sources)
		cmd.Printf("\nSession: %s\n", answer.SessionID)
		return nil
	}

	events, err := a.orchestrator.AskStream(ctx, req)
	if err != nil {
		return err
	}

	var sessionID string
	var sources []string
	for event := range events {
		switch event.Type {
		case domain.StreamEventSession:
			sessionID = event.SessionID
		case domain.StreamEventToken:
			cmd.Print(event.Token)
		case domain.StreamEventSources:
			sources = event.Sources
		case domain.StreamEventDone:
			cmd.Println()
		case domain.StreamEventError:
			cmd.Println()
			return event.Err
		}
	}

	printSources(cmd, sources)
	if sessionID != "" {
		cmd.Printf("\nSession: %s\n", sessionID)
	}
	return nil
}

func printSources(cmd *cobra.Command, sources []string) {
	if len(sources) == 0 {
		return
	}
	cmd.Printf("\nSources: %s\n", strings.Join(sources, ", "))
}
