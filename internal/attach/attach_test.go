package attach

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is the 8-byte PNG signature plus padding.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromFile(t *testing.T) {
	path := writeTempFile(t, "shot.png", pngHeader)

	att, err := FromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if att.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", att.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		t.Fatalf("Data is not valid base64: %v", err)
	}
	if string(decoded) != string(pngHeader) {
		t.Error("decoded data does not match the file")
	}
	if !strings.HasPrefix(att.PreviewURL, "data:image/png;base64,") {
		t.Errorf("PreviewURL = %q", att.PreviewURL)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSniffMime(t *testing.T) {
	tests := []struct {
		path string
		data []byte
		want string
	}{
		{"a.jpg", nil, "image/jpeg"},
		{"a.JPEG", nil, "image/jpeg"},
		{"a.webp", nil, "image/webp"},
		{"doc.pdf", nil, "application/pdf"},
		{"noext", pngHeader, "image/png"},
	}
	for _, tt := range tests {
		if got := sniffMime(tt.path, tt.data); got != tt.want {
			t.Errorf("sniffMime(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExtractPDFTextRejectsNonPDF(t *testing.T) {
	path := writeTempFile(t, "fake.pdf", []byte("not a pdf at all"))
	if _, err := ExtractPDFText(path); err == nil {
		t.Fatal("expected error for non-pdf content")
	}
}
