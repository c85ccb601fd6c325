// Package archive implements the archive data layer: decoding and validating the
// item collection, and the pure filter, sort and paginate steps of the list query.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/JakeFAU/archivist/internal/textutil"
)

// DefaultKind is assigned to items whose kind is absent or not a string.
const DefaultKind = "content"

var (
	// ErrMalformedData is returned when the payload is not valid JSON.
	ErrMalformedData = errors.New("archive data malformed")
	// ErrNoValidItems is returned when a non-empty payload validates to nothing.
	ErrNoValidItems = errors.New("no valid items in archive")
)

// Item is a validated archive entry.
type Item struct {
	ID              string
	Kind            string
	Title           string
	Overline        string
	Desc            string
	Content         string
	Date            string
	Thumb           string
	BackgroundImage string
	Tags            []string
	Links           []Link
}

// KindClass is the lower-cased kind used for CSS classes and data attributes.
func (it Item) KindClass() string {
	k := textutil.Lower(it.Kind)
	if k == "" {
		return DefaultKind
	}
	return k
}

// Link is a call-to-action attached to an item.
type Link struct {
	Href      string
	Label     string
	BtnClass  string
	Class     string
	SortOrder float64
}

// StyleHint returns btn_class, falling back to the legacy class field.
func (l Link) StyleHint() string {
	if l.BtnClass != "" {
		return l.BtnClass
	}
	return l.Class
}

// Payload is the decoded top-level JSON value.
type Payload struct {
	IsArray  bool
	Elements []json.RawMessage
}

// Decode parses the response body. A non-array document decodes successfully
// with IsArray false.
func Decode(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return Payload{}, ErrMalformedData
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Payload{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return Payload{}, errors.Join(ErrMalformedData, err)
	}
	return Payload{IsArray: true, Elements: elems}, nil
}

// rawItem mirrors one payload element with every field left undecoded so that
// absent, null and mistyped values can be told apart.
type rawItem struct {
	ID              json.RawMessage `json:"id"`
	Kind            json.RawMessage `json:"kind"`
	Title           json.RawMessage `json:"title"`
	Overline        json.RawMessage `json:"overline"`
	Desc            json.RawMessage `json:"desc"`
	Content         json.RawMessage `json:"content"`
	Date            json.RawMessage `json:"date"`
	Thumb           json.RawMessage `json:"thumb"`
	BackgroundImage json.RawMessage `json:"background_image"`
	Tags            json.RawMessage `json:"tags"`
	Links           json.RawMessage `json:"links"`
}

type rawLink struct {
	Href      json.RawMessage `json:"href"`
	Label     json.RawMessage `json:"label"`
	BtnClass  json.RawMessage `json:"btn_class"`
	Class     json.RawMessage `json:"class"`
	SortOrder json.RawMessage `json:"sort_order"`
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func isString(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '"'
}

// stringForm renders a scalar the way it reads when coerced to text: strings
// verbatim, numbers in shortest decimal form, booleans as words. Null is empty;
// objects and arrays keep their compact JSON.
func stringForm(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if isNull(t) {
		return ""
	}
	switch t[0] {
	case '"':
		var s string
		if err := json.Unmarshal(t, &s); err == nil {
			return s
		}
	case 't', 'f':
		return string(t)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, t); err == nil {
			return buf.String()
		}
	default:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return string(t)
}

// textField reads an optional descriptive field. Structured values are ignored.
func textField(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) > 0 && (t[0] == '{' || t[0] == '[') {
		return ""
	}
	return stringForm(t)
}

func numberField(raw json.RawMessage) float64 {
	t := bytes.TrimSpace(raw)
	if isNull(t) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(t, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(t, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func decodeTags(raw json.RawMessage) []string {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	tags := make([]string, 0, len(elems))
	for _, e := range elems {
		tags = append(tags, stringForm(e))
	}
	return tags
}

func decodeLinks(raw json.RawMessage) []Link {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	links := make([]Link, 0, len(elems))
	for _, e := range elems {
		var rl rawLink
		if err := json.Unmarshal(e, &rl); err != nil {
			links = append(links, Link{})
			continue
		}
		links = append(links, Link{
			Href:      textField(rl.Href),
			Label:     textField(rl.Label),
			BtnClass:  textField(rl.BtnClass),
			Class:     textField(rl.Class),
			SortOrder: numberField(rl.SortOrder),
		})
	}
	return links
}

func (r rawItem) toItem() Item {
	kind := DefaultKind
	if isString(r.Kind) {
		kind = stringForm(r.Kind)
	}
	return Item{
		ID:              stringForm(r.ID),
		Kind:            kind,
		Title:           stringForm(r.Title),
		Overline:        textField(r.Overline),
		Desc:            textField(r.Desc),
		Content:         textField(r.Content),
		Date:            textField(r.Date),
		Thumb:           textField(r.Thumb),
		BackgroundImage: textField(r.BackgroundImage),
		Tags:            decodeTags(r.Tags),
		Links:           decodeLinks(r.Links),
	}
}
