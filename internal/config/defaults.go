package config

// DefaultFile is the configuration file looked up at the site root.
const DefaultFile = "config.json"

// DefaultThemeName is reported when no theme is configured.
const DefaultThemeName = "default"

// envPrefix prefixes every environment override.
const envPrefix = "MARKDOWNIUM_"

// envKeys maps environment variables (without envPrefix) to configuration
// keys. Variables not listed here are ignored.
var envKeys = map[string]string{
	"BASE_URL":            "baseUrl",
	"SITE_NAME":           "siteName",
	"DESCRIPTION":         "description",
	"AUTHOR":              "author",
	"LOGO":                "logo",
	"LICENSE_BADGE":       "licenseBadge",
	"THEME_NAME":          "theme.name",
	"THEME_COLOR_SCHEME":  "theme.colorScheme",
	"THEME_LAYOUT":        "theme.layout",
	"THEME_FAVICON_EMOJI": "theme.faviconEmoji",
}

// Themes offered by the init wizard.
var builtinThemes = map[string]*Theme{
	"light": {
		Name:         "light",
		CSS:          []string{"themes/light/style.css"},
		ColorScheme:  "light",
		Layout:       "sidebar",
		FaviconEmoji: "📝",
	},
	"dark": {
		Name:         "dark",
		CSS:          []string{"themes/dark/style.css"},
		ColorScheme:  "dark",
		Layout:       "sidebar",
		FaviconEmoji: "🌙",
	},
}

// DefaultSite returns a Site with sensible defaults: content is read from
// the content directory and no theme is loaded.
func DefaultSite() *Site {
	return &Site{
		BaseURL:  "content",
		SiteName: "markdownium",
	}
}
