package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circlesapp/circles-backend/api/controllers"
	"github.com/circlesapp/circles-backend/api/middleware"
	"github.com/circlesapp/circles-backend/internal/auth"
	"github.com/circlesapp/circles-backend/internal/circles"
	"github.com/circlesapp/circles-backend/internal/invitations"
	"github.com/circlesapp/circles-backend/internal/posts"
	"github.com/circlesapp/circles-backend/pkg/auth/session"
	"github.com/circlesapp/circles-backend/pkg/config"
	"github.com/circlesapp/circles-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	circlesService circles.Service,
	invitationsService invitations.Service,
	postsService posts.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Route("/circles", func(r chi.Router) {
			r.Get("/", controllers.CirclesList(circlesService, logg))
			r.Post("/", controllers.CirclesCreate(circlesService, logg))
			r.Get("/{circleId}", controllers.CirclesGet(circlesService, logg))
			r.Patch("/{circleId}", controllers.CirclesRename(circlesService, logg))
			r.Delete("/{circleId}", controllers.CirclesDelete(circlesService, logg))
			r.Post("/{circleId}/members", controllers.CirclesAddMembers(circlesService, logg))
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", controllers.InvitationsList(invitationsService, logg))
			r.Post("/", controllers.InvitationsCreate(invitationsService, logg))
			r.Get("/{invitationId}", controllers.InvitationsGet(invitationsService, logg))
			r.Patch("/{invitationId}", controllers.InvitationsRespond(invitationsService, logg))
			r.Delete("/{invitationId}", controllers.InvitationsDelete(invitationsService, logg))
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", controllers.PostsList(postsService, logg))
			r.Post("/", controllers.PostsCreate(postsService, logg))
			r.Get("/mine", controllers.PostsListMine(postsService, logg))
			r.Get("/{postId}", controllers.PostsGet(postsService, logg))
			r.Patch("/{postId}", controllers.PostsUpdate(postsService, logg))
			r.Delete("/{postId}", controllers.PostsDelete(postsService, logg))
		})
	})

	return r
}
