package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

var allKinds = []Kind{
	KindNotFound, KindForbidden, KindUnauthorized, KindInvalidTransition, KindInvalidState,
	KindInvalidSelection, KindChecklistIncomplete, KindProjectMismatch, KindDuplicateItem,
	KindEmptyManifest, KindItemsPending, KindMalformedToken, KindNotEligible,
	KindAlreadyDelivered, KindStorageFailure, KindValidation, KindRateLimited, KindPayloadTooLarge,
}

func TestKindOf(t *testing.T) {
	err := NotFound("element", uuid.New())
	wrapped := fmt.Errorf("load: %w", err)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindForbidden))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestStorageFailureUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageFailure("element lookup", cause)

	assert.Equal(t, KindStorageFailure, err.Kind())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "element lookup")
}

func TestEveryKindIsMappedAndLocalized(t *testing.T) {
	english := map[string]Kind{}
	icelandic := map[string]Kind{}

	for _, kind := range allKinds {
		if kind != KindStorageFailure {
			assert.NotEqual(t, http.StatusInternalServerError, HTTPStatus(kind), "kind %s", kind)
		}

		en := Localize(kind, language.English)
		is := Localize(kind, language.Icelandic)
		assert.NotEqual(t, string(kind), en, "kind %s has no English text", kind)
		assert.NotEqual(t, string(kind), is, "kind %s has no Icelandic text", kind)
		assert.NotEqual(t, en, is)

		_, dup := english[en]
		assert.False(t, dup, "English message for %s is not distinct", kind)
		english[en] = kind
		icelandic[is] = kind
	}
	assert.Len(t, icelandic, len(allKinds))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindStorageFailure))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
	assert.Equal(t, Localize(KindStorageFailure, language.English), Localize("SOMETHING_ELSE", language.English))
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.English},
		{"is", language.Icelandic},
		{"is-IS,is;q=0.9,en;q=0.8", language.Icelandic},
		{"de-DE,en;q=0.5", language.English},
		{"fr", language.English},
		{";;garbage", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLanguage(tt.header))
		})
	}
}
