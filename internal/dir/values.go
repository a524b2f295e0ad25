package dir

import (
	"encoding/json"
	"fmt"
)

// NumValueRefinement narrows a numeric comparison from equality to a
// relational check.
type NumValueRefinement string

const (
	RefinementNotEqual         NumValueRefinement = "not_equal"
	RefinementGreaterThan      NumValueRefinement = "greater_than"
	RefinementLessThan         NumValueRefinement = "less_than"
	RefinementGreaterThanEqual NumValueRefinement = "greater_than_equal"
	RefinementLessThanEqual    NumValueRefinement = "less_than_equal"
)

// IsValid reports whether the refinement is one of the known relations.
func (r NumValueRefinement) IsValid() bool {
	switch r {
	case RefinementNotEqual, RefinementGreaterThan, RefinementLessThan,
		RefinementGreaterThanEqual, RefinementLessThanEqual:
		return true
	}
	return false
}

// NumValue is the payload of number-shaped keys. Amounts are in minor
// units, fraud rates in basis points. A nil refinement means equality.
type NumValue struct {
	Number     int64               `json:"number"`
	Refinement *NumValueRefinement `json:"refinement,omitempty"`
}

// MetadataValue is a single key/value pair from the transaction's
// free-form metadata.
type MetadataValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DirValue is a tagged union over the key universe: exactly one payload
// field is populated, determined by ShapeOf(Kind). Construct values
// through the New*Value constructors so membership and format checks
// cannot be bypassed.
type DirValue struct {
	Kind     DirKeyKind
	Member   string
	Number   *NumValue
	Str      string
	Metadata *MetadataValue
}

// NewEnumValue builds a value for an enum-shaped kind.
func NewEnumValue(kind DirKeyKind, member string) (DirValue, error) {
	if ShapeOf(kind) != ShapeEnum || !kind.IsValid() {
		return DirValue{}, fmt.Errorf("key %q does not carry an enum value", kind)
	}
	if !IsEnumMember(kind, member) {
		return DirValue{}, fmt.Errorf("%q is not a member of %q", member, kind)
	}
	return DirValue{Kind: kind, Member: member}, nil
}

// NewNumberValue builds a value for a number-shaped kind.
func NewNumberValue(kind DirKeyKind, num NumValue) (DirValue, error) {
	if ShapeOf(kind) != ShapeNumber {
		return DirValue{}, fmt.Errorf("key %q does not carry a numeric value", kind)
	}
	if num.Number < 0 {
		return DirValue{}, fmt.Errorf("key %q: number must be non-negative", kind)
	}
	if num.Refinement != nil && !num.Refinement.IsValid() {
		return DirValue{}, fmt.Errorf("key %q: unknown refinement %q", kind, *num.Refinement)
	}
	n := num
	return DirValue{Kind: kind, Number: &n}, nil
}

// NewStringValue builds a value for a string-shaped kind.
func NewStringValue(kind DirKeyKind, s string) (DirValue, error) {
	if ShapeOf(kind) != ShapeString {
		return DirValue{}, fmt.Errorf("key %q does not carry a string value", kind)
	}
	if s == "" {
		return DirValue{}, fmt.Errorf("key %q: value must not be empty", kind)
	}
	return DirValue{Kind: kind, Str: s}, nil
}

// NewMetadataValue builds a metadata key/value condition.
func NewMetadataValue(key, value string) (DirValue, error) {
	if key == "" {
		return DirValue{}, fmt.Errorf("metadata key must not be empty")
	}
	return DirValue{Kind: KeyMetaData, Metadata: &MetadataValue{Key: key, Value: value}}, nil
}

// NewCountryValue builds a value for a country-shaped kind from an ISO
// 3166-1 alpha-2 code.
func NewCountryValue(kind DirKeyKind, code string) (DirValue, error) {
	if ShapeOf(kind) != ShapeCountry {
		return DirValue{}, fmt.Errorf("key %q does not carry a country value", kind)
	}
	if !isUpperAlpha(code, 2) {
		return DirValue{}, fmt.Errorf("key %q: %q is not an alpha-2 country code", kind, code)
	}
	return DirValue{Kind: kind, Str: code}, nil
}

// NewCurrencyValue builds a payment currency value from an ISO 4217
// alpha-3 code.
func NewCurrencyValue(code string) (DirValue, error) {
	if !isUpperAlpha(code, 3) {
		return DirValue{}, fmt.Errorf("%q is not an alpha-3 currency code", code)
	}
	return DirValue{Kind: KeyPaymentCurrency, Str: code}, nil
}

func isUpperAlpha(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// taggedValue is the wire form of a DirValue: the key kind as the tag
// and a shape-dependent payload.
type taggedValue struct {
	Type  DirKeyKind      `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": <kind>, "value": <payload>}.
func (v DirValue) MarshalJSON() ([]byte, error) {
	var payload any
	switch ShapeOf(v.Kind) {
	case ShapeEnum:
		payload = v.Member
	case ShapeNumber:
		payload = v.Number
	case ShapeString, ShapeCountry, ShapeCurrency:
		payload = v.Str
	case ShapeMetadata:
		payload = v.Metadata
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: v.Kind, Value: raw})
}

// UnmarshalJSON decodes and validates a tagged value through the same
// constructors used for in-process construction.
func (v *DirValue) UnmarshalJSON(data []byte) error {
	var tagged taggedValue
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if !tagged.Type.IsValid() {
		return fmt.Errorf("unknown key kind %q", tagged.Type)
	}

	var (
		parsed DirValue
		err    error
	)
	switch ShapeOf(tagged.Type) {
	case ShapeEnum:
		var member string
		if err = json.Unmarshal(tagged.Value, &member); err == nil {
			parsed, err = NewEnumValue(tagged.Type, member)
		}
	case ShapeNumber:
		var num NumValue
		if err = json.Unmarshal(tagged.Value, &num); err == nil {
			parsed, err = NewNumberValue(tagged.Type, num)
		}
	case ShapeString:
		var s string
		if err = json.Unmarshal(tagged.Value, &s); err == nil {
			parsed, err = NewStringValue(tagged.Type, s)
		}
	case ShapeMetadata:
		var kv MetadataValue
		if err = json.Unmarshal(tagged.Value, &kv); err == nil {
			parsed, err = NewMetadataValue(kv.Key, kv.Value)
		}
	case ShapeCountry:
		var code string
		if err = json.Unmarshal(tagged.Value, &code); err == nil {
			parsed, err = NewCountryValue(tagged.Type, code)
		}
	case ShapeCurrency:
		var code string
		if err = json.Unmarshal(tagged.Value, &code); err == nil {
			parsed, err = NewCurrencyValue(code)
		}
	}
	if err != nil {
		return fmt.Errorf("decoding %q value: %w", tagged.Type, err)
	}

	*v = parsed
	return nil
}
