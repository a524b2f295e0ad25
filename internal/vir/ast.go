package vir

import "github.com/opensource-finance/kestrel/internal/dir"

// ComparisonLogic mirrors the DIR comparison logic in the valued domain.
type ComparisonLogic string

const (
	PositiveDisjunction ComparisonLogic = "positive_disjunction"
	NegativeConjunction ComparisonLogic = "negative_conjunction"
)

// ValuedComparison is the lowered form of a DIR comparison.
type ValuedComparison struct {
	Values   []EuclidValue   `json:"values"`
	Logic    ComparisonLogic `json:"logic"`
	Metadata dir.Metadata    `json:"metadata,omitempty"`
}

// ValuedIfStatement preserves the source statement's tree shape,
// including the distinction between absent and present-but-empty Nested.
type ValuedIfStatement struct {
	Condition []ValuedComparison  `json:"condition"`
	Nested    []ValuedIfStatement `json:"nested"`
}

// ValuedRule carries the source rule's name and selection payload
// unchanged; only the condition tree is in the valued domain.
type ValuedRule[O any] struct {
	Name               string              `json:"name"`
	ConnectorSelection O                   `json:"connector_selection"`
	Statements         []ValuedIfStatement `json:"statements"`
}

// ValuedProgram is the analysis-ready counterpart of a DIR program.
type ValuedProgram[O any] struct {
	DefaultSelection O               `json:"default_selection"`
	Rules            []ValuedRule[O] `json:"rules"`
	Metadata         dir.Metadata    `json:"metadata"`
}
