package archive

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/logging"
)

// ValidationError describes why the payload element at Index was rejected.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// Result holds either a validated item or the reason it was rejected.
type Result struct {
	Item Item
	Err  *ValidationError
}

// ValidationReport summarizes validation of a whole payload.
type ValidationReport struct {
	Items    []Item
	Rejected []ValidationError
	RawCount int
	IsArray  bool
}

// Err reports ErrNoValidItems when a non-empty array lost every element.
func (r ValidationReport) Err() error {
	if r.IsArray && r.RawCount > 0 && len(r.Items) == 0 {
		return ErrNoValidItems
	}
	return nil
}

var (
	errNull      = errors.New("is required")
	errNotString = errors.New("must be a string")
)

func notNull(value any) error {
	raw, _ := value.(json.RawMessage)
	if isNull(raw) {
		return errNull
	}
	return nil
}

func stringValue(value any) error {
	raw, _ := value.(json.RawMessage)
	if !isString(raw) {
		return errNotString
	}
	return nil
}

// Validate checks the required fields of r.
func (r *rawItem) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.By(notNull)),
		validation.Field(&r.Title, validation.By(stringValue)),
	)
}

// ValidateElement checks one payload element and converts it into an Item.
func ValidateElement(index int, raw json.RawMessage) Result {
	var r rawItem
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{Err: &ValidationError{Index: index, Reason: "not an object"}}
	}
	if err := r.Validate(); err != nil {
		return Result{Err: &ValidationError{Index: index, Reason: err.Error()}}
	}
	return Result{Item: r.toItem()}
}

// ValidateArchiveData keeps, in order, every element carrying a non-null id and a
// string title. Rejections and non-array payloads are reported through dbg.
func ValidateArchiveData(p Payload, dbg logging.Debug) ValidationReport {
	report := ValidationReport{IsArray: p.IsArray, RawCount: len(p.Elements)}
	if !p.IsArray {
		dbg.Warn("archive data is not an array")
		return report
	}
	report.Items = make([]Item, 0, len(p.Elements))
	for i, raw := range p.Elements {
		res := ValidateElement(i, raw)
		if res.Err != nil {
			report.Rejected = append(report.Rejected, *res.Err)
			dbg.Warn("item missing required fields",
				zap.Int("index", i),
				zap.String("reason", res.Err.Reason),
			)
			continue
		}
		report.Items = append(report.Items, res.Item)
	}
	return report
}
