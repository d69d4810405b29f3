package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mentorly/api/internal/config"
	"mentorly/api/internal/middleware"
	"mentorly/api/internal/models"
	"mentorly/api/internal/repository"
	"mentorly/api/internal/service"
	"mentorly/api/internal/session"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	codec     *session.Codec
	cookies   session.Cookies
	auth      *service.AuthService
	messaging *service.MessagingService
	forum     *service.ForumService
	db        *pgxpool.Pool
	cache     *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig) HandlerSet {
	stores := map[models.Role]service.CredentialStore{
		models.RoleStudent: repository.NewIdentityRepository(db, models.RoleStudent),
		models.RoleMentor:  repository.NewIdentityRepository(db, models.RoleMentor),
		models.RoleAdmin:   repository.NewIdentityRepository(db, models.RoleAdmin),
	}

	messageRepo := repository.NewMessageRepository(db)
	forumRepo := repository.NewForumRepository(db)

	h := newHandlerSet(log, cfg, stores, messageRepo, forumRepo)
	h.db = db
	h.cache = cache
	return h
}

func newHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	stores map[models.Role]service.CredentialStore,
	messages service.MessageStore,
	forum service.ForumStore,
) HandlerSet {
	return HandlerSet{
		log:   log,
		cfg:   cfg,
		codec: session.NewCodec(cfg.Session.Secret, cfg.Session.TTL),
		cookies: session.Cookies{
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.SecureCookies,
			MaxAge: cfg.Session.TTL,
		},
		auth:      service.NewAuthService(stores, log),
		messaging: service.NewMessagingService(messages, cfg.Messaging.MaxContentLen, cfg.Messaging.PageSize, log),
		forum:     service.NewForumService(forum, log),
	}
}

func (h HandlerSet) Codec() *session.Codec { return h.codec }

func (h HandlerSet) Cookies() session.Cookies { return h.cookies }

func (h HandlerSet) Register(engine *gin.Engine) {
	h.registerPages(engine)

	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/students/register", h.RegisterAccount(models.RoleStudent))
		auth.POST("/mentors/register", h.RegisterAccount(models.RoleMentor))
		auth.POST("/students/login", h.Login(models.RoleStudent))
		auth.POST("/mentors/login", h.Login(models.RoleMentor))
		auth.POST("/admins/login", h.Login(models.RoleAdmin))
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.SessionCheck)
	}

	// Route policy (applied engine-wide) already guards these prefixes; the
	// handlers can assume a resolved identity.
	v1.POST("/messages", h.SendMessage)
	v1.POST("/messages/:id/read", h.MarkMessageRead)
	v1.GET("/messages/unread-count", h.UnreadCount)
	v1.GET("/conversations", h.ListConversations)
	v1.GET("/conversations/:counterpartId/messages", h.ListConversationMessages)

	forum := v1.Group("/forum")
	forum.GET("/posts", h.ListForumPosts)
	forum.POST("/posts", h.CreateForumPost)
	forum.POST("/posts/:id/flag", h.FlagForumPost)

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.DELETE("/forum/posts/:id", h.RemoveForumPost)
	admin.POST("/identities/:role/:id/deactivate", h.DeactivateIdentity)
}
