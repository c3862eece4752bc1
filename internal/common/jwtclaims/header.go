package jwtclaims

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type jwsHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
	Kid any    `json:"kid"`
}

// ExtractKid performs the size guard and header-only parse required
// before any signature work happens: reject a token larger than
// maxSize without parsing it at all, then pull "kid" out of the header,
// rejecting a missing, empty, or non-string kid.
func ExtractKid(token string, maxSize int) (string, error) {
	if len(token) > maxSize {
		return "", fmt.Errorf("token exceeds maximum size of %d bytes", maxSize)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token: expected 3 segments, got %d", len(parts))
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid header encoding: %w", err)
	}

	var hdr jwsHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return "", fmt.Errorf("invalid header json: %w", err)
	}

	kid, ok := hdr.Kid.(string)
	if !ok || kid == "" {
		return "", fmt.Errorf("missing or non-string kid")
	}
	return kid, nil
}
