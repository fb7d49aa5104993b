package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Devanshi-Padia/media-automation/internal/config"
	"github.com/Devanshi-Padia/media-automation/internal/content"
	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/news"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
	"github.com/Devanshi-Padia/media-automation/internal/social"
)

// Server holds the HTTP server and its dependencies
type Server struct {
	config      *config.Config
	logger      zerolog.Logger
	textGen     *content.TextGenerator
	imageGen    *content.ImageGenerator
	distributor *social.Distributor
	registry    *prometheus.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	aiClient := openai.NewClient(cfg.OpenAIAPIKey)
	newsClient := news.NewClient(cfg.NewsAPIKey)

	textGen := content.NewTextGenerator(aiClient, newsClient, cfg.TextModel)
	imageGen := content.NewImageGenerator(aiClient, cfg.TextModel, cfg.ImageModel, cfg.TemplatePath, cfg.OutputDir, cfg.ImageMaxAttempts, logger)

	distributor := social.NewDistributor(logger,
		social.NewTwitterPoster(social.TwitterCredentials{
			APIKey:       cfg.TwitterAPIKey,
			APISecret:    cfg.TwitterAPISecret,
			AccessToken:  cfg.TwitterAccessToken,
			AccessSecret: cfg.TwitterAccessSecret,
		}),
		social.NewInstagramPoster(social.InstagramCredentials{
			UserID:      cfg.InstagramUserID,
			AccessToken: cfg.InstagramAccessToken,
		}, cfg.PublicBaseURL),
		social.NewLinkedInPoster(social.LinkedInCredentials{
			AccessToken: cfg.LinkedInAccessToken,
			AuthorURN:   cfg.LinkedInAuthorURN,
		}),
		social.NewFacebookPoster(social.FacebookCredentials{
			PageID:          cfg.FacebookPageID,
			PageAccessToken: cfg.FacebookPageAccessToken,
		}),
		social.NewDiscordPoster(cfg.DiscordWebhookURL),
	)

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	return &Server{
		config:      cfg,
		logger:      logger,
		textGen:     textGen,
		imageGen:    imageGen,
		distributor: distributor,
		registry:    registry,
	}, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/content/generate", s.generateHandler).Methods("POST")
	r.HandleFunc("/content/post-to-social-media", s.postToSocialMediaHandler).Methods("POST")
	r.HandleFunc("/content/image/{filename}", s.imageHandler).Methods("GET")

	return r
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
