package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/config"
	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	commentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/comments"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	momentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moments"
	reviewsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/review"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/transport/http/handlers"
)

type Dependencies struct {
	CommentService   *commentsvc.Service
	MomentService    *momentsvc.Service
	ModerationEngine *modsvc.Engine
	ReviewService    *reviewsvc.Service
	JWTManager       *authsvc.JWTManager
	MetricsHandler   http.Handler
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	commentsHandler := handlers.NewCommentsHandler(deps.CommentService)
	momentsHandler := handlers.NewMomentsHandler(deps.MomentService)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationEngine)
	reviewHandler := handlers.NewReviewHandler(deps.ReviewService, deps.ModerationEngine)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)
	moderatorMW := RequireRole(authsvc.RoleModerator, authsvc.RoleAdmin)
	adminMW := RequireRole(authsvc.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Post("/moments", momentsHandler.Create)
		r.With(authMW).Get("/moments/{momentID}", momentsHandler.Get)
		r.With(authMW).Post("/comments", commentsHandler.Create)
		r.With(authMW).Get("/moments/{momentID}/comments", commentsHandler.ListByMoment)
		r.With(authMW).Get("/moderation/content/{contentID}", moderationHandler.Status)
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(authMW, moderatorMW).Get("/review/pending", reviewHandler.ListPending)
		r.With(authMW, moderatorMW).Post("/review/{contentID}", reviewHandler.Resolve)
		r.With(authMW, adminMW).Delete("/moderation/{contentID}", reviewHandler.Erase)
	})
}
