package gemini

import "github.com/iceiceblakey1/atelier/internal/prompt"

// Wire shapes of the Generative Language API live here and nowhere else;
// the rest of the codebase speaks prompt.Request and result.Result.

// Part is one piece of content: inline text or inline binary.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64 binary with a declared mime type.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is a role-attributed list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Tool declares a capability the model may use.
type Tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// ImageConfig carries image-synthesis options.
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// PrebuiltVoiceConfig names a stock voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// VoiceConfig selects a voice for single-speaker synthesis.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// SpeakerVoiceConfig binds one named speaker to a voice.
type SpeakerVoiceConfig struct {
	Speaker     string      `json:"speaker"`
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

// MultiSpeakerVoiceConfig carries the full speaker-to-voice mapping.
type MultiSpeakerVoiceConfig struct {
	SpeakerVoiceConfigs []SpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

// SpeechConfig selects voices; exactly one of the two fields is set.
type SpeechConfig struct {
	VoiceConfig             *VoiceConfig             `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *MultiSpeakerVoiceConfig `json:"multiSpeakerVoiceConfig,omitempty"`
}

// GenerationConfig carries modality expectations and modality options.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	ImageConfig        *ImageConfig  `json:"imageConfig,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// generateRequest is the JSON body for :generateContent and
// :streamGenerateContent.
type generateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// SafetyRating is one category's content-policy verdict.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability,omitempty"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content       Content        `json:"content"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// PromptFeedback reports content-policy screening of the request itself.
type PromptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

// GenerateResponse is the JSON returned by :generateContent and by each
// streamed SSE event.
type GenerateResponse struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// FirstText returns the first candidate's concatenated text parts.
func (r *GenerateResponse) FirstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// FirstInlineData returns the first inline-binary part of the first
// candidate, or nil when the response carries no binary payload.
func (r *GenerateResponse) FirstInlineData() *Blob {
	if len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil {
			return p.InlineData
		}
	}
	return nil
}

// BlockedCategories lists the content-policy categories flagged on either
// the prompt feedback or the first candidate.
func (r *GenerateResponse) BlockedCategories() []string {
	var terms []string
	if r.PromptFeedback != nil {
		if r.PromptFeedback.BlockReason != "" {
			terms = append(terms, r.PromptFeedback.BlockReason)
		}
		for _, s := range r.PromptFeedback.SafetyRatings {
			if s.Blocked {
				terms = append(terms, s.Category)
			}
		}
	}
	if len(r.Candidates) > 0 {
		for _, s := range r.Candidates[0].SafetyRatings {
			if s.Blocked {
				terms = append(terms, s.Category)
			}
		}
	}
	return terms
}

// fromPrompt translates a shaped request into the vendor wire shape.
func fromPrompt(p prompt.Request) generateRequest {
	req := generateRequest{}

	for _, c := range p.Contents {
		role := string(c.Role)
		parts := make([]Part, 0, len(c.Parts))
		for _, part := range c.Parts {
			if part.Data != "" {
				parts = append(parts, Part{InlineData: &Blob{MimeType: part.MimeType, Data: part.Data}})
			} else {
				parts = append(parts, Part{Text: part.Text})
			}
		}
		req.Contents = append(req.Contents, Content{Role: role, Parts: parts})
	}

	if p.Persona != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: p.Persona}}}
	}
	if p.EnableSearch {
		req.Tools = append(req.Tools, Tool{GoogleSearch: &struct{}{}})
	}

	cfg := &GenerationConfig{}
	used := false
	for _, m := range p.Modalities {
		switch m {
		case prompt.ModalityImage:
			cfg.ResponseModalities = append(cfg.ResponseModalities, "IMAGE")
			used = true
		case prompt.ModalityAudio:
			cfg.ResponseModalities = append(cfg.ResponseModalities, "AUDIO")
			used = true
		}
	}
	if p.AspectRatio != "" {
		cfg.ImageConfig = &ImageConfig{AspectRatio: p.AspectRatio}
		used = true
	}
	if p.Speech != nil {
		cfg.SpeechConfig = speechConfig(p.Speech)
		used = true
	}
	if used {
		req.GenerationConfig = cfg
	}
	return req
}

func speechConfig(opts *prompt.SpeechOptions) *SpeechConfig {
	if len(opts.Speakers) > 1 {
		multi := &MultiSpeakerVoiceConfig{}
		for _, sp := range opts.Speakers {
			multi.SpeakerVoiceConfigs = append(multi.SpeakerVoiceConfigs, SpeakerVoiceConfig{
				Speaker:     sp.Name,
				VoiceConfig: VoiceConfig{PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: sp.Voice}},
			})
		}
		return &SpeechConfig{MultiSpeakerVoiceConfig: multi}
	}
	return &SpeechConfig{
		VoiceConfig: &VoiceConfig{PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: opts.Speakers[0].Voice}},
	}
}
