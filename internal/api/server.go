package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/acg-climbing/sessions-api/docs"
	v1 "github.com/acg-climbing/sessions-api/internal/api/handler/v1"
	"github.com/acg-climbing/sessions-api/internal/api/middleware"
	"github.com/acg-climbing/sessions-api/internal/cache"
	"github.com/acg-climbing/sessions-api/internal/config"
	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
	"github.com/acg-climbing/sessions-api/internal/repository"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
	"github.com/acg-climbing/sessions-api/internal/service"
)

// Deps are the process-wide collaborators built by the app before the router.
type Deps struct {
	Identities cache.IdentityCache
	Feed       realtime.Publisher
	Hub        *realtime.Hub
	// Google is nil when OAuth is not configured.
	Google service.GoogleProvider
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	deps       Deps
	profiles   *repository.ProfileRepository
	sessions   *repository.AuthSessionRepository
	identities *service.IdentityService
}

func NewServer(conf *config.AppConfig, db *gorm.DB, deps Deps) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:   conf,
		Router:   engine,
		deps:     deps,
		profiles: repository.NewProfileRepository(dao.NewProfileDAO(db)),
		sessions: repository.NewAuthSessionRepository(dao.NewAuthSessionDAO(db)),
	}
	s.identities = service.NewIdentityService(s.profiles, s.sessions, deps.Identities, conf.Auth.IdentityCacheTTL)

	s.MountMiddlewares()

	authHandler := s.initAuthHandler()
	meHandler := v1.NewMeHandler(s.identities)
	eventHandler := s.initEventHandler(db)
	sessionHandler := s.initSessionHandler(db)
	feedHandler := v1.NewFeedHandler(deps.Hub)
	s.MountHandlers(authHandler, meHandler, eventHandler, sessionHandler, feedHandler)

	return s
}

func (s *Server) initAuthHandler() *v1.AuthHandler {
	invalidators := service.Invalidators{s.identities}
	if s.deps.Hub != nil {
		invalidators = append(invalidators, s.deps.Hub)
	}
	svc := service.NewAuthService(s.profiles, s.sessions, s.deps.Google, invalidators, s.Config.Auth)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	participantRepo := repository.NewParticipantRepository(dao.NewParticipantDAO(db))
	svc := service.NewEventService(eventRepo, s.deps.Feed)
	participants := service.NewParticipantService(participantRepo, eventRepo, s.deps.Feed)
	handler := v1.NewEventHandler(svc, participants)

	return handler
}

func (s *Server) initSessionHandler(db *gorm.DB) *v1.SessionHandler {
	repo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	svc := service.NewSessionService(repo)
	handler := v1.NewSessionHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default(). The logger
	// redacts query tokens since the feed accepts access_token there.
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	meHandler *v1.MeHandler,
	eventHandler *v1.EventHandler,
	sessionHandler *v1.SessionHandler,
	feedHandler *v1.FeedHandler,
) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey, s.identities)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
		auth.GET("/auth/google/login", authHandler.HandleGoogleLogin)
		auth.GET("/auth/google/callback", authHandler.HandleGoogleCallback)
	}

	private := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		private.POST("/auth/logout", authHandler.HandleLogout)

		private.GET("/me", meHandler.HandleGetMe)
		private.PATCH("/me", meHandler.HandleUpdateMe)

		private.GET("/events", eventHandler.HandleListEvents)
		private.GET("/events/calendar", eventHandler.HandleCalendar)
		private.GET("/events/feed", feedHandler.HandleFeed)
		private.GET("/events/:eventID", eventHandler.HandleGetEvent)
		private.POST("/events", middleware.RequireCapability(domain.CapCreateEvent), eventHandler.HandleCreateEvent)
		private.GET("/events/:eventID/participants", eventHandler.HandleListParticipants)
		private.POST("/events/:eventID/participants", eventHandler.HandleJoinEvent)
		private.DELETE("/events/:eventID/participants/me", eventHandler.HandleLeaveEvent)

		private.POST("/sessions", middleware.RequireCapability(domain.CapGuideSession), sessionHandler.HandleCreateSession)
		private.POST("/sessions/join", middleware.RequireCapability(domain.CapJoinSession), sessionHandler.HandleJoinSession)
		private.GET("/sessions/:sessionID", sessionHandler.HandleGetSession)
		private.GET("/sessions/:sessionID/qr", sessionHandler.HandleSessionQR)
		private.POST("/sessions/:sessionID/complete", sessionHandler.HandleCompleteSession)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "ACG sessions API"
	docs.SwaggerInfo.Description = "Climbing sessions, events and participants for the adaptive climbing group."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
