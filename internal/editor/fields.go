package editor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/noah-isme/toko-volume-discounts/internal/common"
	"github.com/noah-isme/toko-volume-discounts/internal/threshold"
)

// Field is one metadata input on the threshold form.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Sanitize cleans a submitted value before it is stored. Nil uses SanitizeText.
	Sanitize func(string) string `json:"-"`
	// Render formats a stored value for the form. Nil renders the raw value.
	Render func(string) string `json:"-"`
}

func (f Field) sanitize(value string) string {
	if f.Sanitize != nil {
		return f.Sanitize(value)
	}
	return SanitizeText(value)
}

func (f Field) render(value string) string {
	if f.Render != nil {
		return f.Render(value)
	}
	return value
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<(?:script|style)[^>]*>.*?</(?:script|style)>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	spacePattern  = regexp.MustCompile(`\s+`)
	octetPattern  = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
)

// SanitizeText strips script blocks, tags, percent-encoded octets and control
// characters, then collapses whitespace.
func SanitizeText(value string) string {
	value = scriptPattern.ReplaceAllString(value, "")
	value = tagPattern.ReplaceAllString(value, "")
	value = octetPattern.ReplaceAllString(value, "")
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(spacePattern.ReplaceAllString(value, " "))
}

// SanitizeNonNegativeInt sanitizes value as text and coerces it to a
// non-negative integer string; negative or non-numeric input becomes "0".
func SanitizeNonNegativeInt(value string) string {
	return strconv.FormatInt(common.NonNegativeInt(SanitizeText(value)), 10)
}

func defaultFields() []Field {
	return []Field{
		{
			Key:      threshold.MetaRequiredQuantity,
			Label:    "Number of Products Required",
			Sanitize: SanitizeNonNegativeInt,
			Render:   SanitizeNonNegativeInt,
		},
		{
			Key:      threshold.MetaDiscountPercent,
			Label:    "Discount Amount",
			Sanitize: SanitizeNonNegativeInt,
			Render:   SanitizeNonNegativeInt,
		},
	}
}
