package scan

import (
	"net/url"
	"regexp"
	"strings"

	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
)

// Labels only ever carry the canonical lower-case form, so anything else is
// a misread or a foreign code.
var identifierPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ParseToken extracts the element id from a scanned string. The string is
// either the bare id or a URL whose last path segment is the id; query and
// fragment are ignored.
func ParseToken(token string) (uuid.UUID, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return uuid.Nil, malformed(token)
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return uuid.Nil, malformed(token)
		}
		raw = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}

	if !identifierPattern.MatchString(raw) {
		return uuid.Nil, malformed(token)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, malformed(token)
	}
	return id, nil
}

// LabelURL is the payload printed on an element's QR label; ParseToken
// reverses it.
func LabelURL(baseURL string, elementID uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/" + elementID.String()
}

func malformed(token string) error {
	if len(token) > 200 {
		token = token[:200]
	}
	return appErrors.New(appErrors.KindMalformedToken, "scan token is not an element identifier").
		WithDetail("token", token)
}
