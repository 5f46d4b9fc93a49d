package handlers

import (
	"net/http"

	"b0ase/logger"
	"b0ase/middleware"
	"b0ase/models"
	"b0ase/pages"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the JSON API under /api and the marketing pages at the
// root.
func NewRouter(d *Deps, site *pages.Handler) http.Handler {
	auth := NewAuthHandler(d)
	profiles := NewProfileHandler(d)
	projects := NewProjectHandler(d)
	invitations := NewInvitationHandler(d)
	gigs := NewGigHandler(d)
	teams := NewTeamHandler(d)
	tokens := NewTokenHandler(d)
	intake := NewClientRequestHandler(d)
	admin := NewAdminHandler(d)
	cal := NewCalendarHandler(d)
	diary := NewDiaryHandler(d)

	throttle := middleware.RateLimit(d.Config.LoginRateLimit, d.Config.LoginRateBurst)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(logger.Middleware(d.Log))
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", d.Health)

	// Marketing pages pick their chrome from the session when there is one
	router.Group(func(r chi.Router) {
		r.Use(d.Auth.Optional)
		r.Get("/", site.Home)
		r.Get("/services", site.Services)
		r.Get("/services/{slug}", site.Service)
		r.Get("/careers", site.Careers)
		r.Get("/privacy-policy", site.PrivacyPolicy)
	})

	router.Route("/api", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(throttle)
			r.Post("/auth/signup", auth.Signup)
			r.Post("/auth/login", auth.Login)
			r.Post("/auth/set-password", auth.SetPassword)
			r.Post("/client-requests", intake.Submit)
			r.Post("/projects/{slug}/unlock", projects.Unlock)
		})
		r.Get("/auth/invite", auth.InviteInfo)
		r.Get("/skills", profiles.ListSkills)
		r.Get("/profiles/{username}", profiles.GetPublic)
		r.Get("/teams/browse", teams.Browse)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Optional)
			r.Get("/layout", Layout)
			r.Get("/gigs", gigs.Browse)
			r.Get("/gigs/{id}", gigs.Get)
		})

		// Signed in
		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Require)

			// Reachable before a forced password change
			r.Post("/auth/logout", auth.Logout)
			r.Get("/auth/me", auth.Me)
			r.Post("/auth/password", auth.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePasswordChange)

				r.Get("/profile", profiles.Get)
				r.Put("/profile", profiles.Update)
				r.Post("/profile/avatar", profiles.UploadAvatar)
				r.Get("/profile/skills", profiles.MySkills)
				r.Put("/profile/skills", profiles.SetSkills)

				r.Get("/projects", projects.List)
				r.Post("/projects", projects.Create)
				r.Route("/projects/{slug}", func(r chi.Router) {
					r.Get("/", projects.Get)
					r.Put("/", projects.Update)
					r.Delete("/", projects.Delete)
					r.Patch("/status", projects.UpdateStatus)
					r.Post("/logo", projects.UploadLogo)
					r.Get("/members", projects.Members)
					r.Post("/members", projects.InviteMember)
					r.Post("/members/{id}/approve", projects.ApproveMember)
					r.Post("/members/{id}/reject", projects.RejectMember)
					r.Delete("/members/{id}", projects.RemoveMember)
				})

				r.Get("/invitations", invitations.List)
				r.Post("/invitations/{id}/accept", invitations.Accept)
				r.Post("/invitations/{id}/decline", invitations.Decline)

				r.Get("/gigs/mine", gigs.Mine)
				r.Post("/gigs", gigs.Create)
				r.Put("/gigs/{id}", gigs.Update)
				r.Delete("/gigs/{id}", gigs.Delete)
				r.Post("/gigs/{id}/publish", gigs.Publish)
				r.Post("/gigs/{id}/unpublish", gigs.Unpublish)

				r.Get("/teams", teams.Mine)
				r.Post("/teams", teams.Create)
				r.Route("/teams/{slug}", func(r chi.Router) {
					r.Get("/", teams.Get)
					r.Put("/", teams.Update)
					r.Delete("/", teams.Delete)
					r.Post("/join", teams.Join)
					r.Post("/leave", teams.Leave)
					r.Get("/members", teams.Members)
					r.Patch("/members/{userID}", teams.ChangeRole)
					r.Delete("/members/{userID}", teams.RemoveMember)
					r.Get("/messages", teams.Messages)
					r.Post("/messages", teams.PostMessage)
				})

				r.Get("/tokens", tokens.List)
				r.Post("/tokens", tokens.Create)
				r.Get("/tokens/{id}", tokens.Get)
				r.Put("/tokens/{id}", tokens.Update)
				r.Post("/tokens/{id}/mint", tokens.Mint)

				r.Get("/calendar", cal.Month)
				r.Get("/calendar/events", cal.List)
				r.Post("/calendar/events", cal.Create)
				r.Put("/calendar/events/{id}", cal.Update)
				r.Delete("/calendar/events/{id}", cal.Delete)

				r.Get("/diary/entries", diary.List)
				r.Post("/diary/entries", diary.Create)
				r.Patch("/diary/action-items/{id}", diary.UpdateActionItem)

				// Admin only
				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin))
					r.Get("/project-logins", admin.ListProjectLogins)
					r.Post("/project-logins", admin.CreateProjectLogin)
					r.Put("/project-logins", admin.UpdateProjectLogin)
					r.Delete("/project-logins", admin.DeleteProjectLogin)
					r.Get("/client-requests", admin.ListClientRequests)
					r.Post("/client-requests/{id}/approve", admin.ApproveClientRequest)
					r.Post("/client-requests/{id}/reject", admin.RejectClientRequest)
					r.Post("/client-requests/{id}/resend-approval-email", admin.ResendApprovalEmail)
					r.Post("/invite-client", admin.InviteClient)
					r.Get("/projects", admin.ListProjects)
					r.Patch("/projects/{slug}/featured", admin.SetFeatured)
				})
			})
		})
	})

	return router
}
