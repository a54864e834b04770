package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed jsonschema/profile.json
var profileSchemaDoc string

//go:embed jsonschema/match.json
var matchSchemaDoc string

var (
	profileSchema = mustCompile("profile", profileSchemaDoc)
	matchSchema   = mustCompile("match", matchSchemaDoc)
)

const rootField = "(root)"

type ViolationKind string

const (
	KindMissing ViolationKind = "missing"
	KindType    ViolationKind = "type"
	KindRange   ViolationKind = "range"
	KindEnum    ViolationKind = "enum"
	KindOther   ViolationKind = "other"
)

// Violation is a single failed constraint. Field is a dotted path such as
// "experience.0.company".
type Violation struct {
	Field  string
	Kind   ViolationKind
	Reason string
}

// ValidationError lists every violation found in one pass, ordered by field.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return fmt.Sprintf("schema validation failed: %s", strings.Join(parts, "; "))
}

// Clarification renders the violations as feedback for the next model attempt.
func (e *ValidationError) Clarification() string {
	var b strings.Builder
	b.WriteString("Validation errors:")
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n- Field '%s': %s", v.Field, v.Reason)
	}
	return b.String()
}

// Fields returns the distinct violated field paths.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if !slices.Contains(fields, v.Field) {
			fields = append(fields, v.Field)
		}
	}
	return fields
}

// ParseProfile normalizes and validates a decoded profile payload.
func ParseProfile(obj map[string]any) (*Profile, error) {
	return ValidateProfile(NormalizeProfile(obj))
}

// ParseMatch normalizes and validates a decoded match payload.
func ParseMatch(obj map[string]any) (*MatchResult, error) {
	return ValidateMatch(NormalizeMatch(obj))
}

// ValidateProfile checks a normalized profile payload and decodes it. It never
// rewrites values; anything out of shape is returned as a *ValidationError.
func ValidateProfile(doc map[string]any) (*Profile, error) {
	if err := validate(profileSchema, doc); err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeInto(doc, &profile); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Field: rootField, Kind: KindType, Reason: err.Error()}}}
	}
	profile.fillEmpty()

	return &profile, nil
}

// ValidateMatch checks a normalized match payload and decodes it.
func ValidateMatch(doc map[string]any) (*MatchResult, error) {
	if err := validate(matchSchema, doc); err != nil {
		return nil, err
	}

	var result MatchResult
	if err := decodeInto(doc, &result); err != nil {
		return nil, &ValidationError{Violations: []Violation{{Field: rootField, Kind: KindType, Reason: err.Error()}}}
	}
	result.fillEmpty()

	return &result, nil
}

func validate(schema *gojsonschema.Schema, doc map[string]any) error {
	if doc == nil {
		return &ValidationError{Violations: []Violation{{Field: rootField, Kind: KindType, Reason: "must be an object"}}}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationError{Violations: []Violation{{Field: rootField, Kind: KindOther, Reason: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		v := violation(desc)
		if !slices.Contains(violations, v) {
			violations = append(violations, v)
		}
	}

	slices.SortStableFunc(violations, func(a, b Violation) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})

	return &ValidationError{Violations: violations}
}

func violation(desc gojsonschema.ResultError) Violation {
	field := desc.Field()
	if field == "" {
		field = rootField
	}
	details := desc.Details()

	switch desc.Type() {
	case "required":
		property := fmt.Sprint(details["property"])
		if field != rootField {
			property = field + "." + property
		}
		return Violation{Field: property, Kind: KindMissing, Reason: "is required"}
	case "invalid_type":
		return Violation{Field: field, Kind: KindType, Reason: fmt.Sprintf("must be of type %s", detail(details["expected"]))}
	case "number_gte":
		return Violation{Field: field, Kind: KindRange, Reason: "must be >= " + detail(details["min"])}
	case "number_gt":
		return Violation{Field: field, Kind: KindRange, Reason: "must be > " + detail(details["min"])}
	case "number_lte":
		return Violation{Field: field, Kind: KindRange, Reason: "must be <= " + detail(details["max"])}
	case "number_lt":
		return Violation{Field: field, Kind: KindRange, Reason: "must be < " + detail(details["max"])}
	case "enum":
		return Violation{Field: field, Kind: KindEnum, Reason: "must be one of " + detail(details["allowed"])}
	case "string_gte":
		return Violation{Field: field, Kind: KindMissing, Reason: "must not be empty"}
	default:
		return Violation{Field: field, Kind: KindOther, Reason: desc.Description()}
	}
}

// detail formats a gojsonschema error detail, which may carry big numbers.
func detail(v any) string {
	switch val := v.(type) {
	case *big.Rat:
		if val.IsInt() {
			return val.Num().String()
		}
		f, _ := val.Float64()
		return strconv.FormatFloat(f, 'f', -1, 64)
	case *big.Float:
		return val.Text('g', -1)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}

func decodeInto(doc map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return nil
}

func mustCompile(name, doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}
