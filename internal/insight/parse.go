// Package insight recovers advisory cards from free-form assistant text.
package insight

import (
	"errors"
	"strings"
	"unicode"

	"predictive_maintenance/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

const fence = "```"

// ErrInsightParse is wrapped by every ParseError.
var ErrInsightParse = errors.New("insight text is not a card list")

// ParseError carries the raw text so callers can fall back to showing it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrInsightParse.Error()
	}
	return ErrInsightParse.Error() + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() []error { return []error{ErrInsightParse, e.Err} }

type rawCard struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Parse decodes a JSON array of cards. The text may be wrapped in a
// markdown code block; a block surrounded by prose is tried last.
func Parse(raw string) ([]models.InsightCard, error) {
	cards, err := decodeCards(Unfence(raw))
	if err == nil {
		return cards, nil
	}
	if block, ok := embeddedBlock(raw); ok {
		if cards, berr := decodeCards(block); berr == nil {
			return cards, nil
		}
	}
	return nil, &ParseError{Raw: raw, Err: err}
}

func decodeCards(body string) ([]models.InsightCard, error) {
	if !strings.HasPrefix(body, "[") {
		return nil, errors.New("top-level value is not a list")
	}

	var items []rawCard
	if err := jsonStd.Unmarshal([]byte(body), &items); err != nil {
		return nil, err
	}

	cards := make([]models.InsightCard, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		desc := strings.TrimSpace(it.Description)
		if title == "" && desc == "" {
			continue
		}
		cards = append(cards, models.InsightCard{
			Type:        normalizeType(it.Type),
			Title:       title,
			Description: desc,
		})
	}
	return cards, nil
}

// Unfence removes a markdown code block that wraps the whole text, and
// surrounding whitespace. Fences inside the text are left alone.
func Unfence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, fence) {
		return s
	}
	s = trimLanguageTag(s[len(fence):])
	if strings.HasSuffix(s, fence) {
		s = s[:len(s)-len(fence)]
	}
	return strings.TrimSpace(s)
}

// embeddedBlock returns what lies between the first and the last fence
// when the text has prose around a code block.
func embeddedBlock(raw string) (string, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	rest := trimLanguageTag(raw[start+len(fence):])
	end := strings.LastIndex(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// trimLanguageTag drops an info string such as "json" after an opening fence.
func trimLanguageTag(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsLetter(r) })
}

func normalizeType(s string) models.InsightType {
	switch t := models.InsightType(strings.ToLower(strings.TrimSpace(s))); t {
	case models.InsightCritical, models.InsightWarning, models.InsightInfo, models.InsightTip:
		return t
	default:
		return models.InsightInfo
	}
}
