package dir

import (
	"encoding/json"
	"fmt"
)

// Metadata is free-form annotation carried by comparisons and programs.
// It is passed through lowering untouched.
type Metadata map[string]any

// ComparisonLogic determines how a comparison's value list is matched
// against a transaction fact.
type ComparisonLogic string

const (
	// PositiveDisjunction: the fact matches ANY of the listed values.
	PositiveDisjunction ComparisonLogic = "positive_disjunction"

	// NegativeConjunction: the fact matches NONE of the listed values.
	NegativeConjunction ComparisonLogic = "negative_conjunction"
)

// IsValid reports whether the logic is one of the known matching modes.
func (l ComparisonLogic) IsValid() bool {
	switch l {
	case PositiveDisjunction, NegativeConjunction:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown logic strings at decode time. The zero
// ComparisonLogic would otherwise evaluate as a positive disjunction,
// turning a misspelled exclusion into a match.
func (l *ComparisonLogic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	logic := ComparisonLogic(s)
	if !logic.IsValid() {
		return fmt.Errorf("unknown comparison logic %q", s)
	}
	*l = logic
	return nil
}

// Comparison matches one transaction fact against an ordered list of
// values of the same kind. The same-kind invariant is enforced by
// ValidateProgram at the authoring boundary, not re-checked by lowering.
type Comparison struct {
	Values   []DirValue      `json:"values"`
	Logic    ComparisonLogic `json:"logic"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

// IfStatement is one node of a rule's condition tree. The statement is
// satisfied when every comparison in Condition holds and, if Nested is
// present, at least one nested statement is satisfied too. A nil Nested
// and an empty-but-present Nested are distinct: the latter can never be
// satisfied.
type IfStatement struct {
	Condition []Comparison  `json:"condition"`
	Nested    []IfStatement `json:"nested"`
}

// Rule is a named condition tree with an output payload. Statements are
// an implicit OR. The payload type O is opaque to the rule language; it
// is carried through lowering and returned verbatim by the evaluator.
type Rule[O any] struct {
	Name               string        `json:"name"`
	ConnectorSelection O             `json:"connector_selection"`
	Statements         []IfStatement `json:"statements"`
}

// Program is an ordered rule list with a fallback selection. Order is
// significant: the evaluator applies first-match semantics, and lowering
// preserves the ordering.
type Program[O any] struct {
	DefaultSelection O         `json:"default_selection"`
	Rules            []Rule[O] `json:"rules"`
	Metadata         Metadata  `json:"metadata"`
}
