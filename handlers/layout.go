package handlers

import (
	"net/http"

	"b0ase/layout"
)

type layoutResponse struct {
	layout.Decision
	Path     string           `json:"path"`
	Session  string           `json:"session"`
	NavLinks []layout.NavLink `json:"nav_links,omitempty"`
}

// Layout tells the client which chrome to render for ?path= given the
// caller's session. Sidebar links are included for the app chrome.
func Layout(w http.ResponseWriter, r *http.Request) {
	path := layout.Normalize(r.URL.Query().Get("path"))

	session := layout.Anonymous
	user := currentUser(r)
	if user != nil {
		session = layout.Authenticated
	}

	resp := layoutResponse{
		Decision: layout.Select(path, session),
		Path:     path,
		Session:  session.String(),
	}
	if resp.Chrome == layout.ChromeApp && resp.Redirect == "" {
		resp.NavLinks = layout.NavLinks(path, user.IsAdmin())
	}
	writeJSON(w, http.StatusOK, resp)
}
