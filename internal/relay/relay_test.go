package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/result"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

func chatPrompt(msg string) prompt.Request {
	return prompt.Request{
		Contents: []prompt.Content{{Role: prompt.RoleUser, Parts: []prompt.Part{{Text: msg}}}},
	}
}

func collect(t *testing.T, r *Relay, feature routes.Feature, rt routes.Route, p prompt.Request) []string {
	t.Helper()
	var got []string
	err := r.Stream(context.Background(), feature, rt, p, func(text string) error {
		got = append(got, text)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	return got
}

func TestStreamFromLiveEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"local ","done":false}`+"\n")
		fmt.Fprint(w, `{"response":"answer","done":false}`+"\n")
		fmt.Fprint(w, `{"response":"","done":true}`+"\n")
	}))
	defer srv.Close()

	rt := routes.Route{Enabled: true, Endpoint: srv.URL, ModelName: "llama3"}
	got := collect(t, New(), routes.FeatureChat, rt, chatPrompt("hey"))

	if len(got) != 3 {
		t.Fatalf("got %d chunks, want label + 2 responses: %v", len(got), got)
	}
	if !strings.Contains(got[0], "llama3") {
		t.Errorf("label %q must name the configured model", got[0])
	}
	if got[1]+got[2] != "local answer" {
		t.Errorf("streamed text = %q, want %q", got[1]+got[2], "local answer")
	}
}

func TestStreamSimulatedWhenEndpointDown(t *testing.T) {
	// Grab a port that is guaranteed closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rt := routes.Route{Enabled: true, Endpoint: url, ModelName: "llama3"}
	got := collect(t, New(), routes.FeatureChat, rt, chatPrompt("hey bro"))

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want label + simulated notice: %v", len(got), got)
	}
	if !strings.Contains(got[0], "[Local Engine: llama3]") {
		t.Errorf("label = %q", got[0])
	}
	if !strings.Contains(got[1], "simulated local response") || !strings.Contains(got[1], "hey bro") {
		t.Errorf("simulated notice = %q", got[1])
	}
}

func TestStreamVisionLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"a dog","done":true}`+"\n")
	}))
	defer srv.Close()

	rt := routes.Route{Enabled: true, Endpoint: srv.URL, ModelName: "llava"}
	got := collect(t, New(), routes.FeatureVision, rt, chatPrompt("what is it"))

	if !strings.Contains(got[0], "[Local Vision: llava]") {
		t.Errorf("vision label = %q", got[0])
	}
}

func TestGenerateStandby(t *testing.T) {
	rt := routes.Route{Enabled: true, Endpoint: "http://localhost:5000/v1/generation", ModelName: "sdxl"}

	res := New().Generate(context.Background(), routes.FeatureStudio, rt, prompt.Request{})
	if res.Success {
		t.Fatal("studio relay must answer with a standby failure")
	}
	if res.Error.Reason != result.ReasonLocalStandby {
		t.Errorf("reason = %q, want %q", res.Error.Reason, result.ReasonLocalStandby)
	}
	if !strings.Contains(res.Error.Suggestion, "sdxl") {
		t.Errorf("suggestion %q must name the configured model", res.Error.Suggestion)
	}
	if !res.WellFormed() {
		t.Error("standby result must satisfy the union invariant")
	}
}

func TestGenerateTTSStandby(t *testing.T) {
	rt := routes.Route{Enabled: true, Endpoint: "http://localhost:8000/tts", ModelName: "bark"}

	res := New().Generate(context.Background(), routes.FeatureTTS, rt, prompt.Request{})
	if res.Error == nil || res.Error.Reason != result.ReasonLocalAudio {
		t.Fatalf("result = %+v, want %q", res, result.ReasonLocalAudio)
	}
	if !strings.Contains(res.Error.Suggestion, "bark") {
		t.Errorf("suggestion %q must name the configured model", res.Error.Suggestion)
	}
}

func TestStreamForwardsRelayDetails(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		fmt.Fprint(w, `{"response":"ok","done":true}`+"\n")
	}))
	defer srv.Close()

	rt := routes.Route{Enabled: true, Endpoint: srv.URL, ModelName: "mistral"}
	p := chatPrompt("question")
	p.Persona = "Be kind."
	collect(t, New(), routes.FeatureChat, rt, p)

	if !strings.Contains(gotBody, `"model":"mistral"`) {
		t.Errorf("request body %q must carry the configured model", gotBody)
	}
	if !strings.Contains(gotBody, `"prompt":"question"`) {
		t.Errorf("request body %q must carry the user text", gotBody)
	}
	if !strings.Contains(gotBody, `"system":"Be kind."`) {
		t.Errorf("request body %q must carry the persona", gotBody)
	}
}
