package main

import (
	"fmt"

	"github.com/ecopoints-app/ecopoints/internal/app"
)

// palette holds the ANSI codes for the resolved theme. The zero value
// renders plain text.
type palette struct {
	accent string
	dim    string
	reset  string
}

func (p palette) Accent(s string) string { return p.accent + s + p.reset }
func (p palette) Dim(s string) string    { return p.dim + s + p.reset }

// style is the active output palette, resolved at startup from the config
// theme and the environment.
var style palette

// styleFor maps a theme to terminal colors. Dark terminals get the bright
// variants so the accent stays legible.
func styleFor(t app.Theme) palette {
	if t == app.ThemeDark {
		return palette{accent: "\x1b[92m", dim: "\x1b[90m", reset: "\x1b[0m"}
	}
	return palette{accent: "\x1b[32m", dim: "\x1b[2m", reset: "\x1b[0m"}
}

// commandScreens maps each authenticated subcommand to the screen it lands
// on. Commands outside the map are not gated.
var commandScreens = map[string]app.Screen{
	"whoami":  app.ScreenProfile,
	"balance": app.ScreenHome,
	"history": app.ScreenHistory,
	"rewards": app.ScreenRewards,
	"redeem":  app.ScreenRewards,
	"scan":    app.ScreenScan,
}

// requireScreen routes a command through the navigation gate: a gated
// command without an active session lands back on login.
func requireScreen(a *app.App, cmd string) error {
	screen, ok := commandScreens[cmd]
	if !ok {
		return nil
	}
	if a.Navigate(screen) == app.ScreenLogin {
		return fmt.Errorf("no has iniciado sesión. Usa `ecopoints login`")
	}
	return nil
}
