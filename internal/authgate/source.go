package authgate

import (
	"context"
	"fmt"
)

// StaticSource is the non-interactive credential source used by the daemon:
// the credential either came from configuration or it did not, and "picking"
// means telling the operator how to supply one. A desktop host would replace
// this with its own picker integration.
type StaticSource struct {
	HasKey bool
	Hint   string
}

// HasSelectedCredential reports whether a key was configured.
func (s *StaticSource) HasSelectedCredential(ctx context.Context) (bool, error) {
	return s.HasKey, nil
}

// OpenCredentialPicker cannot prompt in a headless daemon; it fails with
// operator guidance instead.
func (s *StaticSource) OpenCredentialPicker(ctx context.Context) error {
	if s.HasKey {
		return nil
	}
	hint := s.Hint
	if hint == "" {
		hint = "set GEMINI_API_KEY or gemini.api_key in the config file and restart"
	}
	return fmt.Errorf("no API credential configured: %s", hint)
}
