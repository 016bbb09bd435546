// Package theme tracks the light/dark page theme. The choice is stored on the
// visitor's side under a fixed key and survives across sessions.
package theme

import (
	"net/http"
	"time"
)

// Theme is the page color scheme.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// StorageKey is the cookie name the theme is stored under.
const StorageKey = "theme"

const cookieMaxAge = 365 * 24 * time.Hour

// Parse returns the theme named by s, or def when s is empty or unknown.
func Parse(s string, def Theme) Theme {
	switch Theme(s) {
	case Dark, Light:
		return Theme(s)
	}
	if def == Light {
		return Light
	}
	return Dark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// ButtonLabel is the toggle button text: it names the theme a click switches to.
func (t Theme) ButtonLabel() string {
	if t == Dark {
		return "Light Mode"
	}
	return "Dark Mode"
}

// FromRequest reads the stored theme, falling back to def.
func FromRequest(r *http.Request, def Theme) Theme {
	c, err := r.Cookie(StorageKey)
	if err != nil {
		return Parse("", def)
	}
	return Parse(c.Value, def)
}

// Store writes t to the response as a long-lived cookie.
func Store(w http.ResponseWriter, t Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     StorageKey,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
