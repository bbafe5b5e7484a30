package tui

import (
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Start        *model.NodeKey
	Theme        themes.Theme
	Width        int
	Height       int
	ComputedOnly bool
	ShowHelp     bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Width:  100,
		Height: 30,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size. The first window size message
// replaces it.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithStart selects the line shown first.
func WithStart(key model.NodeKey) Option {
	return func(c *Config) {
		c.Start = &key
	}
}

// WithComputedOnly hides input lines until toggled.
func WithComputedOnly() Option {
	return func(c *Config) {
		c.ComputedOnly = true
	}
}
