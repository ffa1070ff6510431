package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/shell"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a site with an interactive wizard",
	Long:  `Runs an interactive wizard that writes the site configuration, then creates a home page, a sidebar and the selected theme's stylesheet where they do not exist yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(siteRoot, cfgFile)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		site, err := config.RunWizard(path, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		created, err := scaffold(siteRoot, site)
		if err != nil {
			return err
		}
		for _, f := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "  created %s\n", f)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nRun `markdownium serve` to preview your site.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterHome = `# Welcome to %s

This page lives in ` + "`%s/home.md`" + `. Add more pages next to it and link them
with hash routes, for example [About](#/about).

` + "```go" + `
fmt.Println("code blocks get highlighting and a copy button")
` + "```" + `
`

const starterSidebar = `- [Home](#/home)
`

var themeStylesheets = map[string]string{
	"light": `body { background: #fff; color: #222; font-family: system-ui, sans-serif; }
.layout-sidebar .layout { display: flex; gap: 2rem; }
#sidebar { min-width: 12rem; }
a { color: #0b61a4; }
`,
	"dark": `body { background: #16181d; color: #e4e6eb; font-family: system-ui, sans-serif; }
.layout-sidebar .layout { display: flex; gap: 2rem; }
#sidebar { min-width: 12rem; }
a { color: #7ab7ff; }
`,
}

// scaffold writes starter files for site below root, leaving existing files
// alone. It returns the files it created, relative to root.
func scaffold(root string, site *config.Site) ([]string, error) {
	files := map[string]string{}
	if site.BaseURL != "" && !strings.Contains(site.BaseURL, "://") {
		dir := strings.Trim(filepath.ToSlash(filepath.Clean(site.BaseURL)), "/")
		files[dir+"/home.md"] = fmt.Sprintf(starterHome, site.SiteName, dir)
		files[dir+"/"+shell.SidebarPage+".md"] = starterSidebar
	}
	if site.Theme != nil {
		if css, ok := themeStylesheets[site.Theme.Name]; ok {
			for _, f := range site.Theme.CSS {
				files[f] = css
			}
		}
	}

	var created []string
	for _, name := range sortedKeys(files) {
		dest := filepath.Join(root, filepath.FromSlash(name))
		if _, err := os.Stat(dest); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return created, err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return created, err
		}
		if err := atomic.WriteFile(dest, strings.NewReader(files[name])); err != nil {
			return created, fmt.Errorf("writing %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
