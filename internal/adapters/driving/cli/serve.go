package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arkanlabs/docchat/internal/adapters/driving/httpapi"
	"github.com/arkanlabs/docchat/internal/watcher"
)

var (
	serveAddr  string
	serveWatch string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the docchat HTTP API. Questions are answered over
server-sent events; documents can be uploaded, listed and deleted; and
sessions can be inspected and managed.

With --watch, files dropped into the given directory are ingested
automatically while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "directory to watch for new documents")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	a.sweeper.Start()

	if serveWatch != "" {
		w := watcher.New(a.ingestor, serveWatch)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Stop()
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr: serveAddr,
		Probes: []httpapi.HealthProbe{
			{Name: "embedding", Ping: a.embedder.Ping},
			{Name: "llm", Ping: a.llm.Ping},
		},
	}, a.orchestrator, a.sessions, a.ingestor)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	cmd.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
