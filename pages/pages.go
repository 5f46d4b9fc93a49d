package pages

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"b0ase/layout"
	"b0ase/logger"
	"b0ase/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "services", "service", "careers", "privacy-policy"}

type Data struct {
	Title    string
	Chrome   string
	Path     string
	NavLinks []layout.NavLink
	UserName string
	Services []Service
	Service  Service
	Year     int
}

// Handler serves the marketing pages. Each page template is parsed together
// with the shared base and chrome partials.
type Handler struct {
	templates map[string]*template.Template
}

func NewHandler() (*Handler, error) {
	templates := make(map[string]*template.Template, len(pageNames))
	for _, page := range pageNames {
		t, err := template.New("").ParseFS(templateFS,
			"templates/base.html",
			"templates/chrome.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, err
		}
		templates[page] = t
	}
	return &Handler{templates: templates}, nil
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home", Data{Title: "B0ASE", Services: Services()})
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "services", Data{Title: "Services", Services: Services()})
}

func (h *Handler) Service(w http.ResponseWriter, r *http.Request) {
	svc, ok := FindService(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "service", Data{Title: svc.Title, Service: svc})
}

func (h *Handler) Careers(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "careers", Data{Title: "Careers"})
}

func (h *Handler) PrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "privacy-policy", Data{Title: "Privacy Policy"})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data Data) {
	user := middleware.GetUserFromContext(r.Context())
	session := layout.Anonymous
	if user != nil {
		session = layout.Authenticated
	}

	decision := layout.Select(r.URL.Path, session)
	if decision.Redirect != "" {
		http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
		return
	}

	data.Chrome = string(decision.Chrome)
	data.Path = r.URL.Path
	data.Year = time.Now().Year()
	if user != nil {
		data.UserName = user.Profile.DisplayLabel()
		if data.UserName == "" {
			data.UserName = user.Email
		}
		if decision.Chrome == layout.ChromeApp {
			data.NavLinks = layout.NavLinks(r.URL.Path, user.IsAdmin())
		}
	}

	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		logger.L().Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
