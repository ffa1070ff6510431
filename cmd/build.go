package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/markdownium/internal/export"
	"github.com/ziadkadry99/markdownium/internal/progress"
	"github.com/ziadkadry99/markdownium/internal/theme"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render every page into static HTML",
	Long: `Renders each markdown page below the configured content directory into a
standalone HTML file. Pages with a frontmatter title use the post layout and
are listed on a generated archive page. Drafts are skipped unless --drafts
is given.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("out", "", "output directory (defaults to <root>/public)")
	buildCmd.Flags().Bool("drafts", false, "include pages marked as drafts")
	buildCmd.Flags().String("highlight-style", "", "chroma style for code blocks")
	buildCmd.Flags().String("sass", "", "sass executable used to compile SCSS theme files")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join(siteRoot, "public")
	}
	drafts, _ := cmd.Flags().GetBool("drafts")
	style, _ := cmd.Flags().GetString("highlight-style")

	res, err := export.Build(cmd.Context(), export.Options{
		Root:           siteRoot,
		Out:            out,
		ConfigFile:     cfgFile,
		IncludeDrafts:  drafts,
		HighlightStyle: style,
		Compiler:       compilerFromFlags(cmd),
		Reporter:       progress.NewReporter(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("building site: %w\nRun `markdownium init` to create a site", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Static site generated: %s (%s)\n", out, res.Summary())
	if len(res.Skipped) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d drafts; use --drafts to include them\n", len(res.Skipped))
	}
	return nil
}

// compilerFromFlags returns a sass compiler when --sass names an executable.
func compilerFromFlags(cmd *cobra.Command) theme.StylesheetCompiler {
	bin, _ := cmd.Flags().GetString("sass")
	if bin == "" {
		return nil
	}
	return theme.SassCommand{Path: bin}
}
