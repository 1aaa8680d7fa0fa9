package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testShaper() *Shaper {
	return NewShaper(DefaultCatalog())
}

func TestChatShape(t *testing.T) {
	history := []Turn{
		{Role: RoleUser, Text: "yo"},
		{Role: RoleModel, Text: "what's good, legend"},
		{Role: RoleModel, Text: "engine failed", IsError: true},
		{Role: RoleUser, Text: "   "},
	}

	req := testShaper().Chat(history, "rate my playlist")

	if len(req.Contents) != 3 {
		t.Fatalf("got %d contents, want 3 (error and blank turns dropped)", len(req.Contents))
	}
	last := req.Contents[2]
	if last.Role != RoleUser || last.Parts[0].Text != "rate my playlist" {
		t.Errorf("last content = %+v, want the new user message", last)
	}
	if !req.EnableSearch {
		t.Error("chat requests must enable the search tool")
	}
	if !strings.Contains(req.Persona, "Blake") {
		t.Errorf("persona = %q, want the journal persona", req.Persona)
	}
}

func TestVisionShape(t *testing.T) {
	img := &Attachment{Data: "aGk=", MimeType: "image/png"}

	req := testShaper().Vision(nil, "what is this", img)

	if len(req.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(req.Contents))
	}
	parts := req.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want image then text", len(parts))
	}
	if parts[0].MimeType != "image/png" || parts[0].Data != "aGk=" {
		t.Errorf("first part = %+v, want the inline image", parts[0])
	}
	if parts[1].Text != "what is this" {
		t.Errorf("second part = %+v, want the question", parts[1])
	}
	if req.EnableSearch {
		t.Error("vision requests must not enable search")
	}
}

func TestVisionShapeNoImage(t *testing.T) {
	req := testShaper().Vision(nil, "just text", nil)
	if len(req.Contents[0].Parts) != 1 {
		t.Errorf("got %d parts, want text only", len(req.Contents[0].Parts))
	}
}

func TestEnhanceShape(t *testing.T) {
	req := testShaper().Enhance("a cat")

	text := req.Contents[0].Parts[0].Text
	if !strings.Contains(text, `"a cat"`) {
		t.Errorf("enhance text = %q, want quoted original prompt", text)
	}
	if !strings.Contains(req.Persona, "prompt architect") {
		t.Errorf("persona = %q, want the enhancer persona", req.Persona)
	}
}

func TestStudioModes(t *testing.T) {
	identity := Attachment{Data: "QQ==", MimeType: "image/png", Role: AttachmentIdentity}
	style := Attachment{Data: "Qg==", MimeType: "image/jpeg", Role: AttachmentStyle}
	plain := Attachment{Data: "Qw==", MimeType: "image/png"}

	tests := []struct {
		name    string
		mode    StudioMode
		atts    []Attachment
		wantErr bool
	}{
		{"create no attachments", ModeCreate, nil, false},
		{"create one attachment", ModeCreate, []Attachment{plain}, false},
		{"create two attachments", ModeCreate, []Attachment{plain, style}, true},
		{"edit one attachment", ModeEdit, []Attachment{plain}, false},
		{"variation one attachment", ModeVariation, []Attachment{plain}, false},
		{"variation none", ModeVariation, nil, true},
		{"variation two", ModeVariation, []Attachment{plain, plain}, true},
		{"copycat both roles", ModeCopycat, []Attachment{identity, style}, false},
		{"copycat missing style", ModeCopycat, []Attachment{identity, plain}, true},
		{"copycat single attachment", ModeCopycat, []Attachment{identity}, true},
		{"bogus mode", StudioMode("remix"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testShaper().Studio("a skyline", tt.atts, tt.mode, StudioOptions{})
			if (err != nil) != tt.wantErr {
				t.Errorf("Studio() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStudioEmptyPromptNoAttachment(t *testing.T) {
	if _, err := testShaper().Studio("  ", nil, ModeCreate, StudioOptions{}); err == nil {
		t.Fatal("expected validation error for empty prompt with no attachment")
	}
}

func TestStudioDefaultsAspectRatio(t *testing.T) {
	req, err := testShaper().Studio("a skyline", nil, ModeCreate, StudioOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.AspectRatio != "1:1" {
		t.Errorf("AspectRatio = %q, want 1:1", req.AspectRatio)
	}

	req, err = testShaper().Studio("a skyline", nil, ModeCreate, StudioOptions{AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.AspectRatio != "16:9" {
		t.Errorf("AspectRatio = %q, want 16:9", req.AspectRatio)
	}
}

func TestSpeechShape(t *testing.T) {
	req, err := testShaper().Speech("Narrator: hello", SpeechOptions{
		Speakers:    []Speaker{{Name: "Narrator", Voice: "Kore"}, {Name: "Guest", Voice: "Puck"}},
		Instruction: "Read warmly.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Speech == nil || len(req.Speech.Speakers) != 2 {
		t.Fatalf("Speech options not carried: %+v", req.Speech)
	}
	if req.Persona != "Read warmly." {
		t.Errorf("Persona = %q, want the instruction text", req.Persona)
	}
	if len(req.Modalities) != 1 || req.Modalities[0] != ModalityAudio {
		t.Errorf("Modalities = %v, want audio only", req.Modalities)
	}
}

func TestSpeechValidation(t *testing.T) {
	sh := testShaper()

	if _, err := sh.Speech("", SpeechOptions{Speakers: []Speaker{{Voice: "Kore"}}}); err == nil {
		t.Error("expected error for empty text")
	}
	if _, err := sh.Speech("hi", SpeechOptions{Speakers: []Speaker{{Name: "A"}}}); err == nil {
		t.Error("expected error for speaker without voice")
	}

	req, err := sh.Speech("hi", SpeechOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Speech.Speakers) != 1 || req.Speech.Speakers[0].Voice != DefaultVoice {
		t.Errorf("Speakers = %+v, want single default voice", req.Speech.Speakers)
	}
}

func TestParseStudioMode(t *testing.T) {
	if m, err := ParseStudioMode(""); err != nil || m != ModeCreate {
		t.Errorf("ParseStudioMode(\"\") = %v, %v; want create", m, err)
	}
	if _, err := ParseStudioMode("remix"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	// Missing file keeps defaults.
	cat, err := LoadCatalog(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cat != DefaultCatalog() {
		t.Error("missing file should yield defaults")
	}

	// Partial override keeps the rest.
	path := filepath.Join(dir, "personas.yaml")
	if err := os.WriteFile(path, []byte("observer: Calm museum guide.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err = LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Observer != "Calm museum guide." {
		t.Errorf("Observer = %q, want override", cat.Observer)
	}
	if cat.Journal != DefaultCatalog().Journal {
		t.Error("Journal should remain the default")
	}

	// Unparsable file reports an error but still yields defaults.
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err = LoadCatalog(path)
	if err == nil {
		t.Error("expected parse error")
	}
	if cat != DefaultCatalog() {
		t.Error("parse failure should yield defaults")
	}
}

func TestLastUserText(t *testing.T) {
	req := testShaper().Chat([]Turn{{Role: RoleModel, Text: "hi"}}, "final question")
	if got := req.LastUserText(); got != "final question" {
		t.Errorf("LastUserText() = %q", got)
	}
}
