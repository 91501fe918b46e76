package app

// Screen identifies a navigation destination.
type Screen string

const (
	ScreenLogin   Screen = "login"
	ScreenHome    Screen = "home"
	ScreenScan    Screen = "scan"
	ScreenHistory Screen = "history"
	ScreenRewards Screen = "rewards"
	ScreenProfile Screen = "profile"
)

// RequiresSession reports whether a screen is behind the login gate.
func (s Screen) RequiresSession() bool {
	return s != ScreenLogin
}

// Navigate resolves the screen the user actually lands on: any gated screen
// falls back to login when no session is active.
func (a *App) Navigate(target Screen) Screen {
	if !target.RequiresSession() {
		return target
	}
	if _, err := a.Current(); err != nil {
		return ScreenLogin
	}
	return target
}
