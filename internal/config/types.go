package config

// Site is the site configuration, normally read from config.json at the
// site root. It is loaded once and not modified afterwards.
type Site struct {
	BaseURL      string     `json:"baseUrl" yaml:"baseUrl" koanf:"baseUrl"`
	SiteName     string     `json:"siteName" yaml:"siteName" koanf:"siteName"`
	Theme        *Theme     `json:"theme,omitempty" yaml:"theme,omitempty" koanf:"theme"`
	MainMenu     []MenuItem `json:"mainMenu,omitempty" yaml:"mainMenu,omitempty" koanf:"mainMenu"`
	Socials      []Social   `json:"socials,omitempty" yaml:"socials,omitempty" koanf:"socials"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty" koanf:"description"`
	Author       string     `json:"author,omitempty" yaml:"author,omitempty" koanf:"author"`
	Logo         string     `json:"logo,omitempty" yaml:"logo,omitempty" koanf:"logo"`
	LicenseBadge string     `json:"licenseBadge,omitempty" yaml:"licenseBadge,omitempty" koanf:"licenseBadge"`
}

// Theme lists the assets and presentation settings of a theme.
type Theme struct {
	Name         string   `json:"name" yaml:"name" koanf:"name"`
	CSS          []string `json:"css,omitempty" yaml:"css,omitempty" koanf:"css"`
	SCSS         []string `json:"scss,omitempty" yaml:"scss,omitempty" koanf:"scss"`
	JS           []string `json:"js,omitempty" yaml:"js,omitempty" koanf:"js"`
	ColorScheme  string   `json:"colorScheme,omitempty" yaml:"colorScheme,omitempty" koanf:"colorScheme"`
	Layout       string   `json:"layout,omitempty" yaml:"layout,omitempty" koanf:"layout"`
	FaviconEmoji string   `json:"faviconEmoji,omitempty" yaml:"faviconEmoji,omitempty" koanf:"faviconEmoji"`
}

// MenuItem is an entry of the main menu.
type MenuItem struct {
	Title string `json:"title" yaml:"title" koanf:"title"`
	URL   string `json:"url" yaml:"url" koanf:"url"`
}

// Social is a link to one of the author's profiles.
type Social struct {
	Name string `json:"name" yaml:"name" koanf:"name"`
	URL  string `json:"url" yaml:"url" koanf:"url"`
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty" koanf:"icon"`
}
