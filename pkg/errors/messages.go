package errors

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var httpStatus = map[Kind]int{
	KindNotFound:            http.StatusNotFound,
	KindForbidden:           http.StatusForbidden,
	KindUnauthorized:        http.StatusUnauthorized,
	KindInvalidTransition:   http.StatusConflict,
	KindInvalidState:        http.StatusConflict,
	KindInvalidSelection:    http.StatusUnprocessableEntity,
	KindChecklistIncomplete: http.StatusPreconditionFailed,
	KindProjectMismatch:     http.StatusUnprocessableEntity,
	KindDuplicateItem:       http.StatusConflict,
	KindEmptyManifest:       http.StatusPreconditionFailed,
	KindItemsPending:        http.StatusPreconditionFailed,
	KindMalformedToken:      http.StatusBadRequest,
	KindNotEligible:         http.StatusUnprocessableEntity,
	KindAlreadyDelivered:    http.StatusGone,
	KindStorageFailure:      http.StatusInternalServerError,
	KindValidation:          http.StatusBadRequest,
	KindRateLimited:         http.StatusTooManyRequests,
	KindPayloadTooLarge:     http.StatusRequestEntityTooLarge,
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	if status, ok := httpStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SupportedLanguages lists the catalogs registered in init, default first.
var SupportedLanguages = []language.Tag{language.English, language.Icelandic}

var languageMatcher = language.NewMatcher(SupportedLanguages)

func init() {
	catalog := map[Kind][2]string{
		KindNotFound:            {"The requested record does not exist.", "Umbeðin færsla finnst ekki."},
		KindForbidden:           {"You are not allowed to perform this action.", "Þú hefur ekki heimild til þessarar aðgerðar."},
		KindUnauthorized:        {"Please sign in again.", "Vinsamlegast skráðu þig inn aftur."},
		KindInvalidTransition:   {"This status change is not allowed.", "Þessi stöðubreyting er ekki leyfð."},
		KindInvalidState:        {"The record is not in a state that allows this action.", "Færslan er ekki í stöðu sem leyfir þessa aðgerð."},
		KindInvalidSelection:    {"The selected elements cannot be used together.", "Ekki er hægt að nota völdu einingarnar saman."},
		KindChecklistIncomplete: {"All checklist items must be checked first.", "Haka þarf við öll atriði gátlistans fyrst."},
		KindProjectMismatch:     {"The element belongs to a different project than the delivery.", "Einingin tilheyrir öðru verkefni en afhendingin."},
		KindDuplicateItem:       {"The element is already on this delivery.", "Einingin er nú þegar á þessari afhendingu."},
		KindEmptyManifest:       {"Load at least one element before departing.", "Hlaða þarf að minnsta kosti einni einingu fyrir brottför."},
		KindItemsPending:        {"Some elements have not been confirmed as delivered.", "Enn á eftir að staðfesta afhendingu sumra eininga."},
		KindMalformedToken:      {"The scanned code was not recognised.", "Skannaði kóðinn þekktist ekki."},
		KindNotEligible:         {"The element is not ready for delivery.", "Einingin er ekki tilbúin til afhendingar."},
		KindAlreadyDelivered:    {"The element has already been delivered.", "Einingin hefur þegar verið afhent."},
		KindStorageFailure:      {"A storage error occurred. Reload and try again.", "Villa kom upp í gagnageymslu. Endurhlaðið og reynið aftur."},
		KindValidation:          {"The request contains invalid data.", "Beiðnin inniheldur ógild gögn."},
		KindRateLimited:         {"Too many requests. Wait a moment and try again.", "Of margar beiðnir. Bíddu augnablik og reyndu aftur."},
		KindPayloadTooLarge:     {"The request is too large.", "Beiðnin er of stór."},
	}

	for kind, texts := range catalog {
		key := string(kind)
		_ = message.SetString(language.English, key, texts[0])
		_ = message.SetString(language.Icelandic, key, texts[1])
	}
}

// MatchLanguage picks the best supported language for an Accept-Language
// header value.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return SupportedLanguages[idx]
}

// Localize returns the user-facing message for kind in the given language.
func Localize(kind Kind, tag language.Tag) string {
	if _, ok := httpStatus[kind]; !ok {
		kind = KindStorageFailure
	}
	return message.NewPrinter(tag).Sprintf(string(kind))
}
