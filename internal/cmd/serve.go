package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/api"
	"github.com/harrison/sitecheck/internal/config"
	"github.com/harrison/sitecheck/internal/logger"
)

// NewServeCommand creates the 'sitecheck serve' command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assessment views over HTTP",
		Long: `Start the HTTP API. Requests are logged in Apache combined format to
stdout; application messages go to stderr and to a log file under
$SITECHECK_HOME/logs (latest.log points at the current file).

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().Bool("no-log-file", false, "Do not write a log file")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var log logger.Logger = e.log
	if noFile, _ := cmd.Flags().GetBool("no-log-file"); !noFile {
		home, err := config.GetSitecheckHome()
		if err != nil {
			return err
		}
		fileLog, err := logger.NewFileLogger(filepath.Join(home, "logs"), "serve", e.cfg.LogLevel)
		if err != nil {
			return err
		}
		defer fileLog.Close()
		log = logger.NewMultiLogger(e.log, fileLog)
	}

	server := api.NewServer(e.store, api.Options{
		HistoryLimit: e.cfg.HistoryLimit,
		Thresholds:   &e.cfg.Feasibility,
		Attention:    &e.cfg.Attention,
		Log:          log,
		AccessLog:    cmd.OutOrStdout(),
	})
	httpSrv := &http.Server{
		Addr:              e.cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.LogInfo(fmt.Sprintf("http server listening on %s (db %s)", e.cfg.ListenAddr, e.store.Path()))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.LogInfo("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.LogInfo("bye")
	return nil
}
