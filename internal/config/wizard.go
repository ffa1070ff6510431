package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the basic site settings and saves the resulting
// configuration to path.
func RunWizard(path string, out io.Writer) (*Site, error) {
	fmt.Fprintln(out, "Welcome to markdownium! Let's configure your site.")
	fmt.Fprintln(out)

	cfg := DefaultSite()

	namePrompt := promptui.Prompt{
		Label:   "Site name",
		Default: cfg.SiteName,
	}
	name, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site name: %w", err)
	}
	cfg.SiteName = strings.TrimSpace(name)

	basePrompt := promptui.Prompt{
		Label:   "Content directory or URL",
		Default: cfg.BaseURL,
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.BaseURL = strings.TrimSpace(base)

	authorPrompt := promptui.Prompt{
		Label: "Author (optional)",
	}
	author, err := authorPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("author: %w", err)
	}
	cfg.Author = strings.TrimSpace(author)

	names := themeChoices()
	themePrompt := promptui.Select{
		Label: "Select theme",
		Items: names,
	}
	_, themeName, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	cfg.Theme = BuiltinTheme(themeName)

	menuPrompt := promptui.Prompt{
		Label:   "Main menu pages (comma-separated)",
		Default: "home",
	}
	menu, err := menuPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("main menu: %w", err)
	}
	cfg.MainMenu = menuItems(splitAndTrim(menu))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// BuiltinTheme returns a copy of the named built-in theme, or nil for the
// default theme and unknown names.
func BuiltinTheme(name string) *Theme {
	t, ok := builtinThemes[name]
	if !ok {
		return nil
	}
	cp := *t
	cp.CSS = append([]string(nil), t.CSS...)
	return &cp
}

func themeChoices() []string {
	names := []string{DefaultThemeName}
	var rest []string
	for name := range builtinThemes {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// menuItems builds menu entries for page names: "getting-started" becomes
// "Getting started" linking to #/getting-started.
func menuItems(pages []string) []MenuItem {
	var items []MenuItem
	for _, p := range pages {
		title := strings.ReplaceAll(p, "-", " ")
		title = strings.ToUpper(title[:1]) + title[1:]
		items = append(items, MenuItem{Title: title, URL: "#/" + p})
	}
	return items
}

// splitAndTrim splits a comma-separated string and drops empty parts.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
