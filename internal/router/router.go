// Package router decides, per feature and per call, whether a request is
// served by the vendor cloud or the user's local relay, and normalizes
// every outcome into the uniform result contract.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iceiceblakey1/atelier/internal/authgate"
	"github.com/iceiceblakey1/atelier/internal/gemini"
	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/result"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

// CloudClient is the vendor transport.
type CloudClient interface {
	Generate(ctx context.Context, model string, p prompt.Request) (*gemini.GenerateResponse, error)
	Stream(ctx context.Context, model string, p prompt.Request, fn func(text string) error) error
}

// LocalRelay is the local transport strategy.
type LocalRelay interface {
	Stream(ctx context.Context, feature routes.Feature, rt routes.Route, p prompt.Request, fn func(text string) error) error
	Generate(ctx context.Context, feature routes.Feature, rt routes.Route, p prompt.Request) result.Result
}

// Router dispatches shaped requests. The route table is passed per call so
// nothing here reads ambient configuration.
type Router struct {
	cloud CloudClient
	relay LocalRelay
	gate  *authgate.Gate
}

// New creates a router over the given transports and auth gate.
func New(cloud CloudClient, relay LocalRelay, gate *authgate.Gate) *Router {
	return &Router{cloud: cloud, relay: relay, gate: gate}
}

// StreamChat routes a chat turn and returns its chunk stream.
func (r *Router) StreamChat(ctx context.Context, rec routes.Record, p prompt.Request) (*Stream, error) {
	return r.streamText(ctx, routes.FeatureChat, gemini.ModelChat, rec, p)
}

// StreamVision routes a vision turn and returns its chunk stream.
func (r *Router) StreamVision(ctx context.Context, rec routes.Record, p prompt.Request) (*Stream, error) {
	return r.streamText(ctx, routes.FeatureVision, gemini.ModelVision, rec, p)
}

func (r *Router) streamText(ctx context.Context, feature routes.Feature, model string, rec routes.Record, p prompt.Request) (*Stream, error) {
	rt := rec.Get(feature)

	if rt.Enabled {
		sctx, cancel := context.WithCancel(ctx)
		s := newStream(cancel)
		go func() {
			defer close(s.ch)
			if err := r.relay.Stream(sctx, feature, rt, p, s.push(sctx)); err != nil && !errors.Is(err, context.Canceled) {
				s.setErr(err)
			}
		}()
		return s, nil
	}

	if err := r.gate.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := newStream(cancel)
	go func() {
		defer close(s.ch)
		err := r.cloud.Stream(sctx, model, p, s.push(sctx))
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case r.gate.HandleFailure(err):
			// The gate can fix this transparently: re-authenticate, emit
			// one recovery chunk, and end the stream normally. The user
			// resends; nothing is replayed automatically.
			if aerr := r.gate.EnsureAuthenticated(sctx); aerr != nil {
				slog.Warn("re-authentication failed", "error", aerr)
				s.setErr(err)
				return
			}
			select {
			case s.ch <- authgate.RecoveryChunk:
			case <-sctx.Done():
			}
		default:
			s.setErr(err)
		}
	}()
	return s, nil
}

// GenerateImage routes an image-synthesis request to a terminal result.
func (r *Router) GenerateImage(ctx context.Context, rec routes.Record, p prompt.Request) result.Result {
	rt := rec.Get(routes.FeatureStudio)
	if rt.Enabled {
		return r.relay.Generate(ctx, routes.FeatureStudio, rt, p)
	}

	if err := r.gate.EnsureAuthenticated(ctx); err != nil {
		return result.FailDetailed(result.ReasonEngineFailure, "Visual synthesis needs a selected credential.", err.Error())
	}

	resp, err := r.cloud.Generate(ctx, gemini.ModelImage, p)
	if err != nil {
		r.gate.HandleFailure(err)
		return result.FailDetailed(result.ReasonEngineFailure, "Visual synthesis failed.", err.Error())
	}

	if blob := resp.FirstInlineData(); blob != nil {
		mime := blob.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return result.OK("data:" + mime + ";base64," + blob.Data)
	}

	if terms := resp.BlockedCategories(); len(terms) > 0 {
		return result.FailBlocked(result.ReasonBlankSynthesis, "The request was declined by content screening. Rephrase and try again.", terms)
	}
	return result.Fail(result.ReasonBlankSynthesis, "Try simplifying your request.")
}

// GenerateSpeech routes a speech-synthesis request to a terminal result.
// On success the payload is raw base64 PCM.
func (r *Router) GenerateSpeech(ctx context.Context, rec routes.Record, p prompt.Request) result.Result {
	rt := rec.Get(routes.FeatureTTS)
	if rt.Enabled {
		return r.relay.Generate(ctx, routes.FeatureTTS, rt, p)
	}

	if err := r.gate.EnsureAuthenticated(ctx); err != nil {
		return result.FailDetailed(result.ReasonVocalParalysis, "Speech synthesis needs a selected credential.", err.Error())
	}

	resp, err := r.cloud.Generate(ctx, gemini.ModelSpeech, p)
	if err != nil {
		if r.gate.HandleFailure(err) {
			// Re-authentication is triggered but the call is not retried;
			// the user re-triggers it.
			if aerr := r.gate.EnsureAuthenticated(ctx); aerr != nil {
				slog.Warn("re-authentication failed", "error", aerr)
			}
		}
		return result.FailDetailed(result.ReasonVocalParalysis, "Speech synthesis failed.", err.Error())
	}

	if blob := resp.FirstInlineData(); blob != nil {
		return result.OK(blob.Data)
	}

	if terms := resp.BlockedCategories(); len(terms) > 0 {
		return result.FailBlocked(result.ReasonSilentSignal, "The script was declined by content screening.", terms)
	}
	return result.Fail(result.ReasonSilentSignal, "The engine produced no audio data.")
}

// Enhance rewrites a studio prompt through the enhancer persona. Any
// failure falls back to the original text; enhancement is best-effort.
func (r *Router) Enhance(ctx context.Context, original string, p prompt.Request) string {
	if err := r.gate.EnsureAuthenticated(ctx); err != nil {
		return original
	}

	resp, err := r.cloud.Generate(ctx, gemini.ModelEnhance, p)
	if err != nil {
		r.gate.HandleFailure(err)
		return original
	}
	if text := strings.TrimSpace(resp.FirstText()); text != "" {
		return text
	}
	return original
}
