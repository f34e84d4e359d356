package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mdbrowser/internal/config"
	"mdbrowser/internal/library"
	"mdbrowser/internal/render"
	"mdbrowser/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a markdown directory in the browser",
		Long: `Start the web viewer. The directory can be given as an argument, set
with "root" in the config file, or chosen later from the page.

Examples:
  mdbrowser serve
  mdbrowser serve ~/notes --port 8080
  mdbrowser serve . --watch=false --threshold 0.3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}
	cmd.Flags().String("host", "127.0.0.1", "Bind host")
	cmd.Flags().Int("port", 3001, "Bind port")
	cmd.Flags().Bool("watch", true, "Push file changes to open pages")
	cmd.Flags().Float64("threshold", 0.4, "Share of right-to-left letters needed to flip a block")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"server.host":      "host",
		"server.port":      "port",
		"server.watch":     "watch",
		"render.threshold": "threshold",
	})
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Root = args[0]
	}

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Event streams end with ctx so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", "http://"+cfg.Server.Addr(),
			"root", cfg.Root,
			"watch", cfg.Server.Watch,
			"threshold", cfg.Render.Threshold,
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	lib, err := library.New(library.Options{
		Ignore: cfg.Library.Ignore,
		Locale: cfg.Library.Locale,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Root != "" {
		if _, err := lib.SetBase(cfg.Root); err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
	}

	return server.New(lib, newRenderer(cfg), server.Options{
		LightStyle:   cfg.Render.LightStyle,
		DarkStyle:    cfg.Render.DarkStyle,
		LineNumbers:  cfg.Render.LineNumbers,
		Watch:        cfg.Server.Watch,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
}

func newRenderer(cfg *config.Config) *render.Renderer {
	return render.New(render.Options{
		Threshold:   cfg.Render.Threshold,
		HardWraps:   cfg.Render.HardWraps,
		LineNumbers: cfg.Render.LineNumbers,
	})
}
