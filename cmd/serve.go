package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/markdownium/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site with live reload",
	Long: `Starts an HTTP server for the site root. Pages are rendered on the server
under / and /page/<name>, and a small script swaps the content region on
navigation. With --live-reload, open browsers reload whenever a file under
the site root changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().Bool("live-reload", true, "reload browsers when files change")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow cross-origin requests from any origin")
	serveCmd.Flags().String("highlight-style", "", "chroma style for code blocks")
	serveCmd.Flags().String("sass", "", "sass executable used to compile SCSS theme files")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	liveReload, _ := cmd.Flags().GetBool("live-reload")
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")
	style, _ := cmd.Flags().GetString("highlight-style")

	if _, err := os.Stat(siteRoot); err != nil {
		return fmt.Errorf("site root: %w", err)
	}

	srv := server.New(server.Config{
		Port:           port,
		Root:           siteRoot,
		ConfigFile:     cfgFile,
		LiveReload:     liveReload,
		AllowAll:       allowAll,
		HighlightStyle: style,
		Compiler:       compilerFromFlags(cmd),
	}, logger)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	fmt.Fprintf(os.Stderr, "markdownium %s serving %s at http://localhost:%d\n", Version, siteRoot, port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
