package pages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"b0ase/middleware"
	"b0ase/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, user *models.User) http.Handler {
	t.Helper()
	h, err := NewHandler()
	require.NoError(t, err)

	r := chi.NewRouter()
	if user != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
			})
		})
	}
	r.Get("/", h.Home)
	r.Get("/services", h.Services)
	r.Get("/services/{slug}", h.Service)
	r.Get("/careers", h.Careers)
	r.Get("/privacy-policy", h.PrivacyPolicy)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPublicPagesRender(t *testing.T) {
	h := newRouter(t, nil)
	for path, want := range map[string]string{
		"/":               "Explore our services",
		"/services":       "Our Services",
		"/privacy-policy": "Privacy Policy",
	} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
		assert.Contains(t, rec.Body.String(), `class="chrome-public"`, path)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	}
}

func TestServiceDetail(t *testing.T) {
	h := newRouter(t, nil)

	rec := get(t, h, "/services/technical-consulting")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Technical Consulting")
	assert.Contains(t, rec.Body.String(), "£150/hr")

	rec = get(t, h, "/services/time-travel")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCareersNeedsSession(t *testing.T) {
	rec := get(t, newRouter(t, nil), "/careers")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcareers", rec.Header().Get("Location"))

	user := &models.User{ID: 1, Email: "ada@example.com", Profile: &models.Profile{Username: "ada"}}
	rec = get(t, newRouter(t, user), "/careers")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="chrome-app"`)
	assert.Contains(t, body, "Join Our Team")
	assert.Contains(t, body, "ada")
	assert.Contains(t, body, `href="/profile"`)
	assert.NotContains(t, body, `href="/admin"`)
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Services(), 10)
	seen := map[string]bool{}
	for _, s := range Services() {
		assert.False(t, seen[s.Slug], s.Slug)
		seen[s.Slug] = true
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Price)
	}
	_, ok := FindService("logo-branding")
	assert.True(t, ok)
}
