package auth

import (
	"encoding/base64"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// ParseBasic extracts credentials from an "Authorization: Basic ..." value.
// Anything malformed is common.ErrorUnauthorized.
func ParseBasic(header string) (email, password string, err error) {
	scheme, encoded, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", common.ErrorUnauthorized
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", common.ErrorUnauthorized
	}

	email, password, ok = strings.Cut(string(decoded), ":")
	if !ok || email == "" {
		return "", "", common.ErrorUnauthorized
	}

	return email, password, nil
}
