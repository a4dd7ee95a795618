package core

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// markup matches a closed tag run. An unclosed '<' is text, not markup.
var markup = regexp.MustCompile(`<[^>]*>`)

// escapePolicy decodes entities and escapes the text once. Its input never
// holds a tag or a bare '<'.
var escapePolicy = bluemonday.StrictPolicy()

// bluemonday escapes double quotes numerically; notes store the named form.
var entityNames = strings.NewReplacer("&#34;", "&quot;")

// TextLength returns the number of characters in s as counted by the validator.
func TextLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// ValidateText checks raw note text. Whitespace is trimmed before measuring.
func ValidateText(raw string) error {
	n := TextLength(strings.TrimSpace(raw))
	if n == 0 {
		return ErrEmptyText
	}
	if n > MaxTextLength {
		return ErrTooLong
	}
	return nil
}

// ValidateRecord checks a typed note record field by field, text last.
func ValidateRecord(n Note) error {
	if n.ID == "" {
		return ErrInvalidID
	}
	if n.CreatedAt <= 0 {
		return ErrInvalidTimestamp
	}
	if n.Position.X < 0 || n.Position.Y < 0 {
		return ErrInvalidPosition
	}
	return ValidateText(n.Text)
}

// SanitizeText strips closed <...> runs, escapes HTML-special characters, trims
// and truncates to MaxTextLength. Element content is kept and a lone '<' is
// escaped. Escaped angle brackets are never re-read as markup, so applying it
// twice yields the same result as applying it once.
func SanitizeText(raw string) string {
	s := norm.NFC.String(raw)
	s = markup.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = escapePolicy.Sanitize(s)
	s = entityNames.Replace(s)
	s = strings.TrimSpace(s)
	s = truncateEntities(s, MaxTextLength)
	return strings.TrimSpace(s)
}

// truncateEntities cuts s to at most limit runes, backing off to the start of
// an entity instead of splitting it.
func truncateEntities(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	if amp := strings.LastIndexByte(s[:cut], '&'); amp >= 0 && !strings.Contains(s[amp:cut], ";") {
		cut = amp
	}
	return s[:cut]
}

// DecodeNote parses a serialized record and validates it. Type mismatches
// that the Note struct cannot represent (missing fields, a non-boolean flag,
// fractional coordinates) are reported with the matching field error.
// Every error returned wraps ErrInvalidRecord.
func DecodeNote(data []byte) (Note, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Note{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	var n Note
	if err := decodeFields(fields, &n); err != nil {
		return Note{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := ValidateRecord(n); err != nil {
		return Note{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return n, nil
}

func decodeFields(fields map[string]json.RawMessage, n *Note) error {
	var id *string
	if err := json.Unmarshal(orNull(fields["id"]), &id); err != nil || id == nil || *id == "" {
		return ErrInvalidID
	}
	n.ID = *id

	var createdAt *float64
	if err := json.Unmarshal(orNull(fields["createdAt"]), &createdAt); err != nil || createdAt == nil ||
		*createdAt <= 0 || *createdAt != math.Trunc(*createdAt) {
		return ErrInvalidTimestamp
	}
	n.CreatedAt = int64(*createdAt)

	var pos *struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(orNull(fields["position"]), &pos); err != nil || pos == nil {
		return ErrInvalidPosition
	}
	x, okX := gridCoordinate(pos.X)
	y, okY := gridCoordinate(pos.Y)
	if !okX || !okY {
		return ErrInvalidPosition
	}
	n.Position = Position{X: x, Y: y}

	var editing *bool
	if err := json.Unmarshal(orNull(fields["isEditing"]), &editing); err != nil || editing == nil {
		return ErrInvalidFlag
	}
	n.IsEditing = *editing

	var text *string
	if err := json.Unmarshal(orNull(fields["text"]), &text); err != nil {
		return fmt.Errorf("text must be a string: %w", err)
	}
	if text != nil {
		n.Text = *text
	}
	return nil
}

func gridCoordinate(v *float64) (int, bool) {
	if v == nil || *v < 0 || *v != math.Trunc(*v) || *v > math.MaxInt32 {
		return 0, false
	}
	return int(*v), true
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// EncodeNote serializes a note in its stored JSON shape.
func EncodeNote(n Note) ([]byte, error) {
	return json.Marshal(n)
}
