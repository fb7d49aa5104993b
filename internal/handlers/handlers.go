package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Devanshi-Padia/media-automation/internal/content"
	"github.com/Devanshi-Padia/media-automation/internal/metrics"
	"github.com/Devanshi-Padia/media-automation/internal/news"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
)

// generateRequest is the body of POST /content/generate
type generateRequest struct {
	Prompt      string   `json:"prompt"`
	IncludeNews bool     `json:"include_news"`
	Platforms   []string `json:"platforms"`
}

// generateResponse is the body of a successful generate call
type generateResponse struct {
	Text      map[platform.Platform]string `json:"text"`
	ImagePath string                       `json:"image_path"`
	Prompt    string                       `json:"prompt"`
}

// postRequest is the body of POST /content/post-to-social-media
type postRequest struct {
	Text      map[string]string `json:"text"`
	ImagePath string            `json:"image_path"`
	Platforms []string          `json:"platforms"`
}

// generateHandler generates text and an image for the requested platforms
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.GenerateRequestsTotal.Inc()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}
	if len(req.Platforms) == 0 {
		http.Error(w, "at least one platform is required", http.StatusBadRequest)
		return
	}
	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	texts, err := s.textGen.Generate(ctx, req.Prompt, req.IncludeNews, platforms)
	if err != nil {
		s.logger.Error().Err(err).Msg("text generation failed")
		http.Error(w, fmt.Sprintf("Error generating text: %v", err), providerErrorStatus(err))
		return
	}

	imagePath, err := s.imageGen.Generate(ctx, req.Prompt, "generated")
	if err != nil {
		s.logger.Error().Err(err).Msg("image generation failed")
		http.Error(w, fmt.Sprintf("Error generating image: %v", err), providerErrorStatus(err))
		return
	}

	response := generateResponse{
		Text:      texts,
		ImagePath: imagePath,
		Prompt:    req.Prompt,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// postToSocialMediaHandler distributes caller-supplied content to the
// requested platforms. It always answers 200 with per-platform outcomes, even
// when every platform failed.
func (s *Server) postToSocialMediaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Platforms) == 0 {
		http.Error(w, "at least one platform is required", http.StatusBadRequest)
		return
	}
	platforms, err := platform.ParseAll(req.Platforms)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	texts := make(map[platform.Platform]string, len(req.Text))
	for name, text := range req.Text {
		if p, err := platform.Parse(name); err == nil {
			texts[p] = text
		}
	}

	result := s.distributor.Post(ctx, texts, req.ImagePath, platforms)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// imageHandler serves a previously generated image by filename
func (s *Server) imageHandler(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	imagePath := filepath.Join(s.config.OutputDir, filename)
	if _, err := os.Stat(imagePath); err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, imagePath)
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// providerErrorStatus maps upstream provider failures to 502 and everything
// else to 500.
func providerErrorStatus(err error) int {
	var genErr *content.GenerationError
	var fetchErr *news.FetchError
	if errors.As(err, &genErr) || errors.As(err, &fetchErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
