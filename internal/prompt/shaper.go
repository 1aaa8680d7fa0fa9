package prompt

import (
	"fmt"
	"strings"
)

// StudioMode selects the image-synthesis workflow, which in turn dictates
// the required attachments.
type StudioMode string

const (
	ModeCreate    StudioMode = "create"
	ModeEdit      StudioMode = "edit"
	ModeCopycat   StudioMode = "copycat"
	ModeVariation StudioMode = "variation"
)

// ParseStudioMode validates a wire-level mode string. An empty string means
// create.
func ParseStudioMode(s string) (StudioMode, error) {
	switch StudioMode(s) {
	case "":
		return ModeCreate, nil
	case ModeCreate, ModeEdit, ModeCopycat, ModeVariation:
		return StudioMode(s), nil
	}
	return "", fmt.Errorf("unknown studio mode %q", s)
}

// StudioOptions carries modality-specific knobs for image synthesis.
type StudioOptions struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// Shaper builds requests using a persona catalog.
type Shaper struct {
	Personas Catalog
}

// NewShaper returns a Shaper over the given persona catalog.
func NewShaper(cat Catalog) *Shaper {
	return &Shaper{Personas: cat}
}

// historyContents converts transcript turns to request contents, dropping
// error turns and empty text.
func historyContents(history []Turn) []Content {
	out := make([]Content, 0, len(history))
	for _, t := range history {
		if t.IsError || strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, Content{Role: t.Role, Parts: []Part{{Text: t.Text}}})
	}
	return out
}

// Chat shapes a journal chat turn: full history plus the new message, the
// journal persona, and the search tool enabled.
func (s *Shaper) Chat(history []Turn, message string) Request {
	contents := historyContents(history)
	contents = append(contents, Content{Role: RoleUser, Parts: []Part{{Text: message}}})
	return Request{
		Contents:     contents,
		Persona:      s.Personas.Journal,
		EnableSearch: true,
		Modalities:   []Modality{ModalityText},
	}
}

// Vision shapes a vision Q&A turn. The optional image rides inline ahead of
// the question text, matching the order the model expects.
func (s *Shaper) Vision(history []Turn, message string, image *Attachment) Request {
	contents := historyContents(history)
	parts := make([]Part, 0, 2)
	if image != nil {
		parts = append(parts, Part{Data: image.Data, MimeType: image.MimeType})
	}
	parts = append(parts, Part{Text: message})
	contents = append(contents, Content{Role: RoleUser, Parts: parts})
	return Request{
		Contents:   contents,
		Persona:    s.Personas.Observer,
		Modalities: []Modality{ModalityText},
	}
}

// Enhance shapes a single-shot prompt-enhancement call.
func (s *Shaper) Enhance(prompt string) Request {
	return Request{
		Contents: []Content{{
			Role:  RoleUser,
			Parts: []Part{{Text: fmt.Sprintf("Enhance this artistic vision: %q", prompt)}},
		}},
		Persona:    s.Personas.Enhancer,
		Modalities: []Modality{ModalityText},
	}
}

// Studio shapes an image-synthesis request. Validation happens here, before
// any dispatch: the mode decides which attachments are required, and an
// empty prompt with no attachment is rejected outright.
func (s *Shaper) Studio(prompt string, attachments []Attachment, mode StudioMode, opts StudioOptions) (Request, error) {
	if strings.TrimSpace(prompt) == "" && len(attachments) == 0 {
		return Request{}, fmt.Errorf("image synthesis needs a prompt or an attachment")
	}
	if err := validateStudioAttachments(mode, attachments); err != nil {
		return Request{}, err
	}

	parts := make([]Part, 0, len(attachments)+1)
	for _, a := range attachments {
		parts = append(parts, Part{Data: a.Data, MimeType: a.MimeType})
	}
	parts = append(parts, Part{Text: prompt})

	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}

	return Request{
		Contents:    []Content{{Role: RoleUser, Parts: parts}},
		Modalities:  []Modality{ModalityImage},
		AspectRatio: aspect,
	}, nil
}

func validateStudioAttachments(mode StudioMode, attachments []Attachment) error {
	switch mode {
	case ModeCopycat:
		if len(attachments) != 2 {
			return fmt.Errorf("copycat mode needs exactly two reference images, got %d", len(attachments))
		}
		var identity, style bool
		for _, a := range attachments {
			switch a.Role {
			case AttachmentIdentity:
				identity = true
			case AttachmentStyle:
				style = true
			}
		}
		if !identity || !style {
			return fmt.Errorf("copycat mode needs one identity reference and one style reference")
		}
	case ModeVariation:
		if len(attachments) != 1 {
			return fmt.Errorf("variation mode needs exactly one source image, got %d", len(attachments))
		}
	case ModeCreate, ModeEdit:
		if len(attachments) > 1 {
			return fmt.Errorf("%s mode accepts at most one attachment, got %d", mode, len(attachments))
		}
	default:
		return fmt.Errorf("unknown studio mode %q", mode)
	}
	return nil
}

// DefaultVoice is the stock voice used when the caller picks none.
const DefaultVoice = "Zephyr"

// Speech shapes a speech-synthesis request. Text is required; an empty
// speaker list gets a single default voice.
func (s *Shaper) Speech(text string, opts SpeechOptions) (Request, error) {
	if strings.TrimSpace(text) == "" {
		return Request{}, fmt.Errorf("speech synthesis needs text to read")
	}
	if len(opts.Speakers) == 0 {
		opts.Speakers = []Speaker{{Name: "Speaker", Voice: DefaultVoice}}
	}
	for _, sp := range opts.Speakers {
		if sp.Voice == "" {
			return Request{}, fmt.Errorf("speaker %q has no voice selected", sp.Name)
		}
	}

	speech := opts
	return Request{
		Contents:   []Content{{Role: RoleUser, Parts: []Part{{Text: text}}}},
		Persona:    opts.Instruction,
		Modalities: []Modality{ModalityAudio},
		Speech:     &speech,
	}, nil
}
