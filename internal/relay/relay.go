// Package relay serves feature requests from user-configured local
// endpoints instead of the vendor cloud. Text features stream from an
// Ollama-style generate endpoint when one is reachable and fall back to a
// clearly labeled simulated response when it is not; image and speech
// synthesis have no local implementation yet and return labeled standby
// results so the settings surface can show the route is wired.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/result"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

// Relay dispatches to a feature's configured local endpoint.
type Relay struct {
	httpClient *http.Client
}

// New creates a relay with the default HTTP client.
func New() *Relay {
	return &Relay{
		httpClient: &http.Client{
			Timeout: 0, // streaming; per-call timeouts via context
		},
	}
}

// label is the stream prefix that identifies the local engine serving a
// text feature. Tests and the UI rely on it naming the configured model.
func label(feature routes.Feature, modelName string) string {
	if feature == routes.FeatureVision {
		return fmt.Sprintf("[Local Vision: %s] ", modelName)
	}
	return fmt.Sprintf("[Local Engine: %s] ", modelName)
}

// generateRequest is the JSON body for an Ollama-style /api/generate call.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// generateChunk is one line of the streamed NDJSON response.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Stream serves a text feature from the configured endpoint. The first chunk
// always labels the local engine; afterwards, real output streams from the
// endpoint, or a simulated notice is emitted when the endpoint is down.
func (r *Relay) Stream(ctx context.Context, feature routes.Feature, rt routes.Route, p prompt.Request, fn func(text string) error) error {
	if err := fn(label(feature, rt.ModelName)); err != nil {
		return err
	}

	if err := r.streamGenerate(ctx, rt, p, fn); err != nil {
		// Placeholder path: the route is wired but no backend answered.
		return fn(fmt.Sprintf(
			"Processing: %s. This is a simulated local response; the endpoint %s did not answer (%v). Configure a real relay in Settings.",
			p.LastUserText(), rt.Endpoint, err,
		))
	}
	return nil
}

func (r *Relay) streamGenerate(ctx context.Context, rt routes.Route, p prompt.Request, fn func(string) error) error {
	body, err := json.Marshal(generateRequest{
		Model:  rt.ModelName,
		Prompt: p.LastUserText(),
		System: p.Persona,
		Stream: true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 300*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rt.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay: unexpected status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var chunk generateChunk
		if err := dec.Decode(&chunk); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("reading relay stream: %w", err)
		}
		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
}

// Generate answers single-shot features. There is no local image or speech
// backend yet, so the route answers with a standby result that names the
// configured model and endpoint.
func (r *Relay) Generate(ctx context.Context, feature routes.Feature, rt routes.Route, p prompt.Request) result.Result {
	switch feature {
	case routes.FeatureTTS:
		return result.Fail(
			result.ReasonLocalAudio,
			fmt.Sprintf("Local audio route to '%s' is not responding. Check your endpoint: %s", rt.ModelName, rt.Endpoint),
		)
	default:
		return result.Fail(
			result.ReasonLocalStandby,
			fmt.Sprintf("The local engine '%s' is not yet responding. Check your endpoint: %s", rt.ModelName, rt.Endpoint),
		)
	}
}

// Reachable reports whether the configured endpoint's host answers at all.
// The settings surface uses it to hint at dead relays.
func (r *Relay) Reachable(ctx context.Context, rt routes.Route) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	base := rt.Endpoint
	if i := strings.Index(base, "/api/"); i > 0 {
		base = base[:i]
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
