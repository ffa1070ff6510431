package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/logging"
)

var (
	cfgFile  string
	siteRoot string
	verbose  bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "markdownium",
	Short: "Render a folder of markdown files as a website",
	Long: `markdownium turns a directory of markdown pages and a small JSON or YAML
configuration into a website. Pages are addressed by hash routes such as
#/about, rendered with syntax highlighting and sanitized before display.
Serve a site with live reload while writing, or build it into static HTML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path, relative to the site root")
	rootCmd.PersistentFlags().StringVar(&siteRoot, "root", ".", "site root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
