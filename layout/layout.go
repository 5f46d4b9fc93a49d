// Package layout decides which page chrome a route is rendered with and
// whether the visitor must be sent elsewhere first.
package layout

import (
	"net/url"
	"strings"
)

type Chrome string

const (
	ChromePublic  Chrome = "public"
	ChromeAuth    Chrome = "auth"
	ChromeMinimal Chrome = "minimal"
	ChromeApp     Chrome = "app"
)

type Session int

const (
	Loading Session = iota
	Anonymous
	Authenticated
	LoggingOut
)

func (s Session) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case LoggingOut:
		return "logging_out"
	}
	return "unknown"
}

type Decision struct {
	Chrome   Chrome `json:"chrome"`
	Redirect string `json:"redirect,omitempty"`
	Spinner  bool   `json:"spinner"`
}

var (
	minimalPrefixes = []string{"/skills"}

	authFlowPrefixes = []string{"/login", "/signup", "/auth", "/set-password", "/update-password"}

	appPrefixes = []string{
		"/profile", "/myprojects", "/projects/new", "/projects/join", "/myagents", "/mytoken",
		"/careers", "/teammanagement", "/team", "/teams", "/messages", "/diary",
		"/workinprogress", "/gigs", "/finances", "/settings", "/admin",
	}
)

const (
	loginPath      = "/login"
	authedHomePath = "/profile"
)

// Normalize strips the query and fragment and any trailing slash, and maps
// an empty path to the root.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// HasPrefix matches whole path segments: /team matches /team and /team/x but
// not /teamwork.
func HasPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '/'
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func Select(path string, session Session) Decision {
	path = Normalize(path)

	switch {
	case matchesAny(path, minimalPrefixes):
		return Decision{Chrome: ChromeMinimal}

	case matchesAny(path, authFlowPrefixes):
		if session == Authenticated {
			return Decision{Chrome: ChromeAuth, Redirect: authedHomePath}
		}
		return Decision{Chrome: ChromeAuth}

	case matchesAny(path, appPrefixes):
		switch session {
		case Loading:
			return Decision{Chrome: ChromeApp, Spinner: true}
		case Anonymous:
			return Decision{Chrome: ChromeApp, Redirect: loginPath + "?next=" + url.QueryEscape(path)}
		case LoggingOut:
			return Decision{Chrome: ChromePublic}
		}
		return Decision{Chrome: ChromeApp}
	}

	return Decision{Chrome: ChromePublic}
}

type NavLink struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

var sidebar = []NavLink{
	{Label: "Profile", Href: "/profile"},
	{Label: "My Projects", Href: "/myprojects"},
	{Label: "Teams", Href: "/teams"},
	{Label: "Gigs", Href: "/gigs"},
	{Label: "Messages", Href: "/messages"},
	{Label: "Diary", Href: "/diary"},
	{Label: "My Token", Href: "/mytoken"},
	{Label: "Finances", Href: "/finances"},
	{Label: "Settings", Href: "/settings"},
}

var adminLink = NavLink{Label: "Admin", Href: "/admin"}

// NavLinks returns the app sidebar with the entry for path flagged active.
func NavLinks(path string, admin bool) []NavLink {
	path = Normalize(path)
	links := make([]NavLink, 0, len(sidebar)+1)
	links = append(links, sidebar...)
	if admin {
		links = append(links, adminLink)
	}
	for i := range links {
		links[i].Active = HasPrefix(path, links[i].Href)
	}
	return links
}
