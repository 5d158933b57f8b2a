package scan

import (
	"strings"
	"testing"

	appErrors "precast-tracker/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	id := uuid.MustParse("3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c")

	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"bare id", "3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c", true},
		{"surrounding space", "  3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c\n", true},
		{"url", "https://precast.local/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c", true},
		{"url with trailing slash", "https://precast.local/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c/", true},
		{"url with query", "https://precast.local/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c?src=label", true},
		{"url with fragment", "https://precast.local/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c#top", true},
		{"relative path with query", "/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c?x=1#y", true},
		{"upper case", "3F2B8C1E-9A4D-4E2F-B7C6-0D1E2F3A4B5C", false},
		{"braces", "{3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c}", false},
		{"no dashes", "3f2b8c1e9a4d4e2fb7c60d1e2f3a4b5c", false},
		{"id not last segment", "https://precast.local/e/3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c/edit", false},
		{"id only in query", "https://precast.local/e?id=3f2b8c1e-9a4d-4e2f-b7c6-0d1e2f3a4b5c", false},
		{"empty", "", false},
		{"garbage", "hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.token)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, id, got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, appErrors.KindMalformedToken, appErrors.KindOf(err))
		})
	}
}

func TestLabelURLRoundTrip(t *testing.T) {
	id := uuid.New()

	for _, base := range []string{"https://precast.local/e", "https://precast.local/e/"} {
		payload := LabelURL(base, id)
		assert.False(t, strings.Contains(payload, "//"+id.String()))

		got, err := ParseToken(payload)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestParseTokenTruncatesDetail(t *testing.T) {
	_, err := ParseToken(strings.Repeat("x", 500))

	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Details["token"], 200)
}
