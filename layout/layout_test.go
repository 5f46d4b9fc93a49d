package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                 "/",
		"/":                "/",
		"///":              "/",
		"/teams/":          "/teams",
		"/gigs?page=2":     "/gigs",
		"/profile#bio":     "/profile",
		"login":            "/login",
		"/projects/new/?x": "/projects/new",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestHasPrefixIsSegmentAware(t *testing.T) {
	assert.True(t, HasPrefix("/team", "/team"))
	assert.True(t, HasPrefix("/team/alpha", "/team"))
	assert.False(t, HasPrefix("/teamwork", "/team"))
	assert.False(t, HasPrefix("/te", "/team"))
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		session Session
		want    Decision
	}{
		{"home is public", "/", Anonymous, Decision{Chrome: ChromePublic}},
		{"services are public", "/services/web-development", Authenticated, Decision{Chrome: ChromePublic}},
		{"skills is minimal for anyone", "/skills/go", Anonymous, Decision{Chrome: ChromeMinimal}},
		{"skills stays minimal while loading", "/skills", Loading, Decision{Chrome: ChromeMinimal}},
		{"login for anonymous", "/login", Anonymous, Decision{Chrome: ChromeAuth}},
		{"login while signed in bounces to profile", "/login", Authenticated, Decision{Chrome: ChromeAuth, Redirect: "/profile"}},
		{"set password flow", "/set-password?code=abc", Anonymous, Decision{Chrome: ChromeAuth}},
		{"app page signed in", "/myprojects", Authenticated, Decision{Chrome: ChromeApp}},
		{"app page loading shows spinner", "/teams/alpha", Loading, Decision{Chrome: ChromeApp, Spinner: true}},
		{"app page anonymous goes to login", "/gigs/12", Anonymous, Decision{Chrome: ChromeApp, Redirect: "/login?next=%2Fgigs%2F12"}},
		{"app page during logout falls back to public", "/profile", LoggingOut, Decision{Chrome: ChromePublic}},
		{"nested project route is app", "/projects/new", Authenticated, Decision{Chrome: ChromeApp}},
		{"other project routes are public", "/projects/acme", Anonymous, Decision{Chrome: ChromePublic}},
		{"lookalike prefix is public", "/teamwork", Anonymous, Decision{Chrome: ChromePublic}},
		{"admin needs a session", "/admin/clients", Anonymous, Decision{Chrome: ChromeApp, Redirect: "/login?next=%2Fadmin%2Fclients"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.path, tt.session))
		})
	}
}

func TestNavLinks(t *testing.T) {
	links := NavLinks("/teams/alpha", false)
	var active []string
	for _, l := range links {
		if l.Active {
			active = append(active, l.Href)
		}
		assert.NotEqual(t, "/admin", l.Href)
	}
	assert.Equal(t, []string{"/teams"}, active)

	admin := NavLinks("/admin", true)
	last := admin[len(admin)-1]
	assert.Equal(t, "/admin", last.Href)
	assert.True(t, last.Active)
}

func TestNavLinksDoesNotMutateSidebar(t *testing.T) {
	NavLinks("/profile", false)
	for _, l := range sidebar {
		assert.False(t, l.Active)
	}
}

func TestSessionString(t *testing.T) {
	assert.Equal(t, "logging_out", LoggingOut.String())
	assert.Equal(t, "unknown", Session(42).String())
}
