package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage conversational sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions",
	RunE:  runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsHistory,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear [id]",
	Short: "Clear a session's history without deleting the session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsClear,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a session's history as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func sessionContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	ctx := sessionContext(cmd)

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	infos, err := a.sessions.List(ctx)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		cmd.Println("No live sessions.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("  %s  %d exchange(s)  last active %s\n",
			info.ID, info.Exchanges, info.LastActivity.Format("15:04:05"))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd)

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sessions.Delete(ctx, args[0]); err != nil {
		return err
	}
	cmd.Printf("deleted session %s\n", args[0])
	return nil
}

func runSessionsHistory(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd)

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.sessions.History(ctx, args[0])
	if err != nil {
		return err
	}

	if len(history) == 0 {
		cmd.Println("No exchanges recorded.")
		return nil
	}
	for i, ex := range history {
		cmd.Printf("[%d] Q: %s\n", i+1, ex.Question)
		cmd.Printf("    A: %s\n", ex.Answer)
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd)

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.sessions.ClearHistory(ctx, args[0]); err != nil {
		return err
	}
	cmd.Printf("cleared session %s\n", args[0])
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd)

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	export, err := a.sessions.Export(ctx, args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
