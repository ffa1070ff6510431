package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/markdownium/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render one markdown file to HTML on stdout",
	Long:  `Renders a markdown file, or stdin when the file is "-" or omitted, into the sanitized HTML fragment markdownium would place in the content region.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Bool("post", false, "use the post layout when the file has a frontmatter title")
	renderCmd.Flags().String("highlight-style", "", "chroma style for code blocks")
	renderCmd.Flags().Bool("css", false, "print the code highlighting stylesheet instead")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var opts []render.Option
	if style, _ := cmd.Flags().GetString("highlight-style"); style != "" {
		opts = append(opts, render.WithHighlightStyle(style))
	}
	r := render.New(opts...)
	out := cmd.OutOrStdout()

	if css, _ := cmd.Flags().GetBool("css"); css {
		return r.HighlightCSS(out)
	}

	src, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	usePost, _ := cmd.Flags().GetBool("post")
	markup, err := renderSource(r, src, usePost)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	_, err = fmt.Fprintln(out, markup)
	return err
}

func renderSource(r *render.Renderer, src string, usePost bool) (string, error) {
	if usePost {
		post, err := render.PostFromDocument(src)
		if err != nil {
			return "", err
		}
		if post.Title != "" {
			return r.RenderPost(post)
		}
	}
	return r.Render(src)
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
