// Package prompt turns user input, conversation history, and attachments
// into vendor-agnostic request descriptions, one shaper per feature.
package prompt

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry in a conversation transcript. Turns flagged as errors
// are rendered by the UI but never sent upstream.
type Turn struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	IsError bool   `json:"isError,omitempty"`
}

// AttachmentRole distinguishes the two reference images the copycat studio
// mode requires.
type AttachmentRole string

const (
	AttachmentNone     AttachmentRole = ""
	AttachmentIdentity AttachmentRole = "identity"
	AttachmentStyle    AttachmentRole = "style"
)

// Attachment is a user-selected binary held just long enough to ride along
// on one outgoing request.
type Attachment struct {
	Data       string         `json:"data"` // base64
	MimeType   string         `json:"mimeType"`
	PreviewURL string         `json:"previewURL,omitempty"`
	Role       AttachmentRole `json:"role,omitempty"`
}

// Part is one piece of request content: inline text or inline binary.
type Part struct {
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"` // base64
	MimeType string `json:"mimeType,omitempty"`
}

// Content is an ordered list of parts attributed to a role.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Modality names a response modality the caller expects.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
)

// Speaker maps a speaker name in the script to a prebuilt voice.
type Speaker struct {
	Name  string `json:"name"`
	Voice string `json:"voice"`
}

// SpeechOptions carries voice selection for speech synthesis. One speaker
// produces a single-voice reading; more than one produces a multi-speaker
// performance keyed by speaker names in the text.
type SpeechOptions struct {
	Speakers    []Speaker `json:"speakers"`
	Instruction string    `json:"instruction,omitempty"`
}

// Request is the shaped, vendor-agnostic description of one generation call.
// The transport layer translates it into whatever shape the chosen backend
// actually speaks.
type Request struct {
	Contents     []Content
	Persona      string // system-instruction text
	EnableSearch bool
	Modalities   []Modality
	AspectRatio  string
	Speech       *SpeechOptions
}

// LastUserText returns the text of the final user part, used by relay
// fallbacks to echo what was asked.
func (r Request) LastUserText() string {
	for i := len(r.Contents) - 1; i >= 0; i-- {
		if r.Contents[i].Role != RoleUser {
			continue
		}
		parts := r.Contents[i].Parts
		for j := len(parts) - 1; j >= 0; j-- {
			if parts[j].Text != "" {
				return parts[j].Text
			}
		}
	}
	return ""
}
