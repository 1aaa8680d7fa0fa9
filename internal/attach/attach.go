// Package attach is the file-ingestion boundary: it turns a user-selected
// local file into the base64 + mime + preview triple the shapers consume.
// PDFs are not sent as binary; their text is extracted for the chat context.
package attach

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/iceiceblakey1/atelier/internal/prompt"
)

const maxAttachmentSize = 20 << 20 // 20MB

// FromFile reads a local file into an attachment ready to ride on one
// outgoing request.
func FromFile(path string) (prompt.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return prompt.Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	if info.Size() > maxAttachmentSize {
		return prompt.Attachment{}, fmt.Errorf("attachment %s is %d bytes, limit is %d", path, info.Size(), maxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompt.Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}

	mime := sniffMime(path, data)
	encoded := base64.StdEncoding.EncodeToString(data)
	return prompt.Attachment{
		Data:       encoded,
		MimeType:   mime,
		PreviewURL: "data:" + mime + ";base64," + encoded,
	}, nil
}

// sniffMime prefers the extension for types content sniffing gets wrong,
// then falls back to http.DetectContentType.
func sniffMime(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	return http.DetectContentType(data)
}

// ExtractPDFText pulls the plain text out of a PDF so it can travel as a
// text part instead of opaque binary.
func ExtractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("pdf %s contains no extractable text", path)
	}
	return text, nil
}
