package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vidtube/vidtube/internal/auth"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/docs"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/ratelimit"
	"github.com/vidtube/vidtube/internal/user"
	"github.com/vidtube/vidtube/internal/validate"
	"github.com/vidtube/vidtube/internal/video"
)

const healthPath = "/api/v1/healthcheck"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB             database.DBTX
	Pinger         Pinger
	Storage        video.ObjectStorage
	Countries      video.CountryResolver
	JWTSecret      string
	BaseURL        string
	CORSOrigins    []string
	MaxUploadBytes int64
	EnableDocs     bool
	// AuthLimiter and APILimiter default to in-process token buckets.
	AuthLimiter ratelimit.Allower
	APILimiter  ratelimit.Allower
}

type Server struct {
	router       chi.Router
	pinger       Pinger
	enableDocs   bool
	authHandler  *auth.Handler
	userHandler  *user.Handler
	videoHandler *video.Handler
	authLimiter  ratelimit.Allower
	apiLimiter   ratelimit.Allower
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s := &Server{
		router:      r,
		pinger:      cfg.Pinger,
		enableDocs:  cfg.EnableDocs,
		authLimiter: cfg.AuthLimiter,
		apiLimiter:  cfg.APILimiter,
	}
	if s.authLimiter == nil {
		s.authLimiter = ratelimit.NewLimiter(0.5, 5)
	}
	if s.apiLimiter == nil {
		s.apiLimiter = ratelimit.NewLimiter(5, 20)
	}

	if cfg.DB != nil {
		jwtSecret := cfg.JWTSecret
		if jwtSecret == "" {
			slog.Error("JWT_SECRET is required; set the environment variable")
			os.Exit(1)
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		secureCookies := strings.HasPrefix(baseURL, "https://")
		s.authHandler = auth.NewHandler(cfg.DB, jwtSecret, secureCookies)
		s.userHandler = user.NewHandler(cfg.DB, cfg.Storage, cfg.MaxUploadBytes)
		s.videoHandler = video.NewHandler(cfg.DB, cfg.Storage, cfg.MaxUploadBytes)
		if cfg.Countries != nil {
			s.videoHandler.SetCountryResolver(cfg.Countries)
		}
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	h := httputil.Handle

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "route not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router.Get(healthPath, s.handleHealth)
	s.router.Get("/api/v1/limits", s.handleLimits)

	if s.enableDocs {
		s.router.Get(docs.Path, docs.HandleDocs)
		s.router.Get(docs.SpecPath, docs.HandleSpec)
	}

	if s.authHandler == nil {
		return
	}

	s.router.Route("/api/v1/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.authLimiter))
			r.Post("/register", h(s.authHandler.Register))
			r.Post("/login", h(s.authHandler.Login))
			r.Post("/refresh-token", h(s.authHandler.Refresh))
		})
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.apiLimiter))
			r.Use(s.authHandler.Middleware)
			r.Post("/logout", h(s.authHandler.Logout))
			r.Post("/change-password", h(s.authHandler.ChangePassword))
			r.Get("/current-user", h(s.authHandler.CurrentUser))
			r.Patch("/update-account", h(s.userHandler.UpdateAccount))
			r.Patch("/avatar", h(s.userHandler.UpdateAvatar))
			r.Patch("/cover-image", h(s.userHandler.UpdateCoverImage))
			r.Get("/c/{username}", h(s.userHandler.ChannelProfile))
			r.Get("/history", h(s.userHandler.WatchHistory))
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(s.apiLimiter))
		r.Use(s.authHandler.Middleware)

		r.Route("/api/v1/videos", func(r chi.Router) {
			r.Get("/", h(s.videoHandler.List))
			r.Post("/", h(s.videoHandler.Publish))
			r.Get("/{videoId}", h(s.videoHandler.GetByID))
			r.Patch("/{videoId}", h(s.videoHandler.Update))
			r.Delete("/{videoId}", h(s.videoHandler.Delete))
			r.Patch("/toggle/publish/{videoId}", h(s.videoHandler.TogglePublish))
		})

		r.Route("/api/v1/comments", func(r chi.Router) {
			r.Get("/{videoId}", h(s.videoHandler.ListComments))
			r.Post("/{videoId}", h(s.videoHandler.AddComment))
			r.Patch("/c/{commentId}", h(s.videoHandler.UpdateComment))
			r.Delete("/c/{commentId}", h(s.videoHandler.DeleteComment))
		})

		r.Route("/api/v1/likes", func(r chi.Router) {
			r.Post("/toggle/v/{videoId}", h(s.videoHandler.ToggleVideoLike))
			r.Post("/toggle/c/{commentId}", h(s.videoHandler.ToggleCommentLike))
			r.Post("/toggle/t/{tweetId}", h(s.videoHandler.ToggleTweetLike))
			r.Get("/videos", h(s.videoHandler.LikedVideos))
		})

		r.Route("/api/v1/playlist", func(r chi.Router) {
			r.Post("/", h(s.videoHandler.CreatePlaylist))
			r.Get("/user/{userId}", h(s.videoHandler.UserPlaylists))
			r.Get("/{playlistId}", h(s.videoHandler.GetPlaylist))
			r.Patch("/{playlistId}", h(s.videoHandler.UpdatePlaylist))
			r.Delete("/{playlistId}", h(s.videoHandler.DeletePlaylist))
			r.Patch("/add/{videoId}/{playlistId}", h(s.videoHandler.AddToPlaylist))
			r.Patch("/remove/{videoId}/{playlistId}", h(s.videoHandler.RemoveFromPlaylist))
		})

		r.Route("/api/v1/subscriptions", func(r chi.Router) {
			r.Post("/c/{channelId}", h(s.videoHandler.ToggleSubscription))
			r.Get("/c/{channelId}", h(s.videoHandler.ChannelSubscribers))
			r.Get("/u/{subscriberId}", h(s.videoHandler.SubscribedChannels))
		})

		r.Route("/api/v1/tweets", func(r chi.Router) {
			r.Post("/", h(s.videoHandler.CreateTweet))
			r.Get("/user/{userId}", h(s.videoHandler.UserTweets))
			r.Patch("/{tweetId}", h(s.videoHandler.UpdateTweet))
			r.Delete("/{tweetId}", h(s.videoHandler.DeleteTweet))
		})

		r.Route("/api/v1/dashboard", func(r chi.Router) {
			r.Get("/stats/{channelId}", h(s.videoHandler.ChannelStats))
			r.Get("/videos/{channelId}", h(s.videoHandler.ChannelVideos))
		})
	})

}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			slog.Error("healthcheck: database unreachable", "error", err)
			httputil.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "ok"}, "OK")
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, validate.FieldLimits(), "Field limits")
}
