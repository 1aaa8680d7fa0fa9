// Package api exposes the routing core over HTTP for the studio front-end
// and over MCP for agent hosts. Every generation endpoint speaks the uniform
// result envelope; streaming endpoints speak SSE.
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iceiceblakey1/atelier/internal/audio"
	"github.com/iceiceblakey1/atelier/internal/gallery"
	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/result"
	"github.com/iceiceblakey1/atelier/internal/router"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

const (
	maxTextBodySize   = 1 << 20  // 1MB, text-only endpoints
	maxBinaryBodySize = 48 << 20 // 48MB, endpoints carrying base64 attachments
)

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Router  *router.Router
	Shaper  *prompt.Shaper
	Routes  routes.Store
	Gallery *gallery.Gallery
	Token   string // empty disables bearer auth
}

// NewHandler returns the studio REST API.
func NewHandler(d Deps) http.Handler {
	r := chi.NewRouter()
	gate := newFeatureGate()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if d.Token != "" {
			r.Use(BearerAuth(d.Token))
		}

		r.Post("/chat/stream", handleChatStream(d, gate))
		r.Post("/vision/stream", handleVisionStream(d, gate))
		r.Post("/images", handleImages(d, gate))
		r.Post("/speech", handleSpeech(d, gate))
		r.Post("/enhance", handleEnhance(d))

		r.Get("/routes", handleRoutesGet(d))
		r.Put("/routes", handleRoutesPut(d))
		r.Delete("/routes", handleRoutesDelete(d))

		r.Get("/gallery", handleGalleryList(d))
		r.Get("/gallery/{id}", handleGalleryGet(d))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type chatRequest struct {
	Message string        `json:"message"`
	History []prompt.Turn `json:"history,omitempty"`
}

func handleChatStream(d Deps, gate *featureGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, ok := gate.tryAcquire(routes.FeatureChat)
		if !ok {
			httpError(w, http.StatusConflict, "busy", "a chat generation is already in flight")
			return
		}
		defer release()

		r.Body = http.MaxBytesReader(w, r.Body, maxTextBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		p := d.Shaper.Chat(req.History, req.Message)
		s, err := d.Router.StreamChat(r.Context(), d.Routes.Load(), p)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "starting stream: %v", err)
			return
		}
		streamSSE(w, s)
	}
}

type visionRequest struct {
	Message string             `json:"message"`
	History []prompt.Turn      `json:"history,omitempty"`
	Image   *prompt.Attachment `json:"image,omitempty"`
}

func handleVisionStream(d Deps, gate *featureGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, ok := gate.tryAcquire(routes.FeatureVision)
		if !ok {
			httpError(w, http.StatusConflict, "busy", "a vision generation is already in flight")
			return
		}
		defer release()

		r.Body = http.MaxBytesReader(w, r.Body, maxBinaryBodySize)
		defer r.Body.Close()

		var req visionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		p := d.Shaper.Vision(req.History, req.Message, req.Image)
		s, err := d.Router.StreamVision(r.Context(), d.Routes.Load(), p)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "starting stream: %v", err)
			return
		}
		streamSSE(w, s)
	}
}

type imageRequest struct {
	Prompt      string              `json:"prompt"`
	Mode        string              `json:"mode,omitempty"`
	Attachments []prompt.Attachment `json:"attachments,omitempty"`
	AspectRatio string              `json:"aspectRatio,omitempty"`
}

type imageResponse struct {
	result.Result
	ArtifactID string `json:"artifactId,omitempty"`
}

func handleImages(d Deps, gate *featureGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, ok := gate.tryAcquire(routes.FeatureStudio)
		if !ok {
			httpError(w, http.StatusConflict, "busy", "an image generation is already in flight")
			return
		}
		defer release()

		r.Body = http.MaxBytesReader(w, r.Body, maxBinaryBodySize)
		defer r.Body.Close()

		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Prompt == "" && len(req.Attachments) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "prompt or attachments required")
			return
		}

		mode, err := prompt.ParseStudioMode(req.Mode)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		p, err := d.Shaper.Studio(req.Prompt, req.Attachments, mode, prompt.StudioOptions{AspectRatio: req.AspectRatio})
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		res := d.Router.GenerateImage(r.Context(), d.Routes.Load(), p)
		out := imageResponse{Result: res}
		if res.Success && d.Gallery != nil {
			out.ArtifactID = d.Gallery.Add(res.Data, req.Prompt).ID
		}
		writeJSON(w, out)
	}
}

type speechRequest struct {
	Text        string           `json:"text"`
	Speakers    []prompt.Speaker `json:"speakers,omitempty"`
	Instruction string           `json:"instruction,omitempty"`
}

func handleSpeech(d Deps, gate *featureGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, ok := gate.tryAcquire(routes.FeatureTTS)
		if !ok {
			httpError(w, http.StatusConflict, "busy", "a speech synthesis is already in flight")
			return
		}
		defer release()

		r.Body = http.MaxBytesReader(w, r.Body, maxTextBodySize)
		defer r.Body.Close()

		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		p, err := d.Shaper.Speech(req.Text, prompt.SpeechOptions{Speakers: req.Speakers, Instruction: req.Instruction})
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		res := d.Router.GenerateSpeech(r.Context(), d.Routes.Load(), p)

		if res.Success && r.URL.Query().Get("format") == "wav" {
			raw, err := base64.StdEncoding.DecodeString(res.Data)
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "decoding audio payload: %v", err)
				return
			}
			buf, err := audio.Decode(raw, audio.DefaultSampleRate, audio.DefaultChannels)
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "decoding pcm: %v", err)
				return
			}
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(audio.EncodeWAV(buf))
			return
		}

		writeJSON(w, res)
	}
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type enhanceResponse struct {
	Prompt string `json:"prompt"`
}

func handleEnhance(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxTextBodySize)
		defer r.Body.Close()

		var req enhanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Prompt == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "prompt is required")
			return
		}

		enhanced := d.Router.Enhance(r.Context(), req.Prompt, d.Shaper.Enhance(req.Prompt))
		writeJSON(w, enhanceResponse{Prompt: enhanced})
	}
}

func handleRoutesGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Routes.Load())
	}
}

func handleRoutesPut(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxTextBodySize)
		defer r.Body.Close()

		var rec routes.Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid route table: %v", err)
			return
		}
		if err := d.Routes.Save(rec); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving routes: %v", err)
			return
		}
		writeJSON(w, rec)
	}
}

func handleRoutesDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Routes.Clear(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "clearing routes: %v", err)
			return
		}
		writeJSON(w, routes.Defaults())
	}
}

func handleGalleryList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Gallery.List())
	}
}

func handleGalleryGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, ok := d.Gallery.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "no artifact %s", id)
			return
		}
		writeJSON(w, a)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
