package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/config"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/infra/metrics"
	s3infra "github.com/Circle-Company/Circle-System-2.0-sub002/internal/infra/s3"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/infra/telegram"
	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/jobs/retention"
	memrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/memory"
	pgrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/postgres"
	redrepo "github.com/Circle-Company/Circle-System-2.0-sub002/internal/repo/redis"
	archivesvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/archive"
	authsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/auth"
	commentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/comments"
	modsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moderation"
	momentsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/moments"
	ratesvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/rate"
	reviewsvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/review"
	strikesvc "github.com/Circle-Company/Circle-System-2.0-sub002/internal/services/strikes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	retention  *retention.Job
	jobCancel  context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	var moderationRepo modsvc.Repository
	var reviewStore reviewsvc.RecordStore
	if pool != nil {
		repo := pgrepo.NewModerationRepo(pool)
		moderationRepo = repo
		reviewStore = repo
	} else {
		log.Warn("using in-memory moderation repository, records will not survive restarts")
		repo := memrepo.NewModerationRepo()
		moderationRepo = repo
		reviewStore = repo
	}

	var archive modsvc.Archive
	if s3Client != nil {
		archive = archivesvc.NewS3Archive(s3Client, cfg.S3.Bucket)
	} else {
		log.Warn("using in-memory archive, archived text will not survive restarts")
		archive = memrepo.NewArchive()
	}

	engine, err := modsvc.NewEngine(cfg.Moderation, moderationRepo, archive)
	if err != nil {
		return nil, fmt.Errorf("build moderation engine: %w", err)
	}

	recorder := metrics.NewRecorder()
	engine.AttachObserver(recorder)

	if cfg.Telegram.Token != "" && cfg.Telegram.ReviewChatID != 0 {
		notifier, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ReviewChatID)
		if err != nil {
			log.Warn("telegram notifier init failed, review alerts disabled", zap.Error(err))
		} else {
			engine.AttachNotifier(notifier)
		}
	}

	strikeService := strikesvc.NewService(redrepo.NewStrikeRepo(redisClient), strikesvc.Config{
		RiskDecayHours:   cfg.Strikes.RiskDecayHours,
		CooldownStepsSec: cfg.Strikes.CooldownStepsSec,
		ShadowThreshold:  cfg.Strikes.ShadowThreshold,
	})
	rateLimiter := ratesvc.NewLimiter(
		redrepo.NewRateRepo(redisClient),
		cfg.Limits.SubmitPerMinute,
		cfg.Limits.SubmitPer10Sec,
	)

	commentRepo := pgrepo.NewCommentRepo(pool)
	momentRepo := pgrepo.NewMomentRepo(pool)

	commentService := commentsvc.NewService(commentsvc.Dependencies{
		Comments:  commentRepo,
		Moments:   momentRepo,
		Moderator: engine,
	}, commentsvc.Config{MaxTextLen: cfg.Moderation.MaxTextLen})
	commentService.AttachRateLimiter(rateLimiter)
	commentService.AttachStrikes(strikeService)

	momentService := momentsvc.NewService(momentRepo, engine, momentsvc.Config{
		MaxDescriptionLen: cfg.Moderation.MaxTextLen,
	})
	momentService.AttachStrikes(strikeService)

	reviewService := reviewsvc.NewService(reviewStore)
	reviewService.AttachHider(enums.ContentTypeComment, commentRepo)
	reviewService.AttachHider(enums.ContentTypeMomentDescription, momentRepo)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	retentionJob := retention.New(moderationRepo, archive, cfg.Retention.KeepAllowed, cfg.Retention.BatchSize, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		CommentService:   commentService,
		MomentService:    momentService,
		ModerationEngine: engine,
		ReviewService:    reviewService,
		JWTManager:       jwtManager,
		MetricsHandler:   recorder.Handler(),
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		retention:  retentionJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	jobCtx, cancel := context.WithCancel(context.Background())
	a.jobCancel = cancel
	go a.retention.Start(jobCtx, a.cfg.Retention.Interval)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.jobCancel != nil {
		a.jobCancel()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
