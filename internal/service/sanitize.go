package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag. Entry fields are plain text.
var textPolicy = bluemonday.StrictPolicy() //nolint:gochecknoglobals // policies are safe for concurrent use

func sanitizeText(s string) string {
	// StrictPolicy escapes what it keeps; store the literal characters.
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizeTitle(title string) (string, error) {
	clean := sanitizeText(title)
	if clean == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return clean, nil
}
