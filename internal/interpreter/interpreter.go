// Package interpreter executes DIR programs against the facts of a
// single transaction. Rules are tried in order and the first satisfied
// rule wins; when none match, the program's default selection applies.
package interpreter

import (
	"github.com/opensource-finance/kestrel/internal/dir"
)

// Input is the fact set describing one transaction, grouped by key
// kind. Metadata facts may carry several values under one kind; every
// other kind normally carries one.
type Input map[dir.DirKeyKind][]dir.DirValue

// NewInput groups facts by their key kind.
func NewInput(facts ...dir.DirValue) Input {
	input := make(Input, len(facts))
	for _, f := range facts {
		input[f.Kind] = append(input[f.Kind], f)
	}
	return input
}

// Decision is the outcome of executing a program.
type Decision[O any] struct {
	Selection O      `json:"selection"`
	RuleName  string `json:"rule_name,omitempty"`
	Matched   bool   `json:"matched"`
}

// Execute runs first-match evaluation: the first rule with a satisfied
// statement wins; otherwise the default selection is returned with
// Matched false.
func Execute[O any](program *dir.Program[O], input Input) Decision[O] {
	for _, rule := range program.Rules {
		for _, stmt := range rule.Statements {
			if statementSatisfied(&stmt, input) {
				return Decision[O]{
					Selection: rule.ConnectorSelection,
					RuleName:  rule.Name,
					Matched:   true,
				}
			}
		}
	}
	return Decision[O]{Selection: program.DefaultSelection}
}

// statementSatisfied requires every comparison in the condition to hold
// and, when a nested list is present, at least one nested statement to
// be satisfied. A present-but-empty nested list can never be satisfied.
func statementSatisfied(stmt *dir.IfStatement, input Input) bool {
	for _, cmp := range stmt.Condition {
		if !comparisonSatisfied(&cmp, input) {
			return false
		}
	}
	if stmt.Nested == nil {
		return true
	}
	for _, nested := range stmt.Nested {
		if statementSatisfied(&nested, input) {
			return true
		}
	}
	return false
}

// comparisonSatisfied matches the transaction's facts for the
// comparison's kind against its value list. With no fact present, a
// positive disjunction fails and a negative conjunction holds
// vacuously.
func comparisonSatisfied(cmp *dir.Comparison, input Input) bool {
	if len(cmp.Values) == 0 {
		// ValidateProgram rejects empty value lists before a program
		// reaches evaluation. If one arrives anyway, matching none of
		// zero values holds vacuously and matching any of zero values
		// never does, consistent with the absent-fact rule below.
		return cmp.Logic == dir.NegativeConjunction
	}
	facts := input[cmp.Values[0].Kind]

	anyMatch := false
	for _, v := range cmp.Values {
		for _, fact := range facts {
			if valueMatches(fact, v) {
				anyMatch = true
			}
		}
	}

	if cmp.Logic == dir.NegativeConjunction {
		return !anyMatch
	}
	return anyMatch
}

// valueMatches compares a transaction fact against a condition value of
// the same kind. Numeric conditions apply their refinement to the
// fact's raw number; all other shapes compare payloads for equality.
func valueMatches(fact, cond dir.DirValue) bool {
	switch dir.ShapeOf(cond.Kind) {
	case dir.ShapeNumber:
		if fact.Number == nil || cond.Number == nil {
			return false
		}
		return numberMatches(fact.Number.Number, cond.Number)
	case dir.ShapeMetadata:
		if fact.Metadata == nil || cond.Metadata == nil {
			return false
		}
		return fact.Metadata.Key == cond.Metadata.Key &&
			fact.Metadata.Value == cond.Metadata.Value
	case dir.ShapeString, dir.ShapeCountry, dir.ShapeCurrency:
		return fact.Str == cond.Str
	default:
		return fact.Member == cond.Member
	}
}

func numberMatches(fact int64, cond *dir.NumValue) bool {
	if cond.Refinement == nil {
		return fact == cond.Number
	}
	switch *cond.Refinement {
	case dir.RefinementNotEqual:
		return fact != cond.Number
	case dir.RefinementGreaterThan:
		return fact > cond.Number
	case dir.RefinementLessThan:
		return fact < cond.Number
	case dir.RefinementGreaterThanEqual:
		return fact >= cond.Number
	case dir.RefinementLessThanEqual:
		return fact <= cond.Number
	}
	return false
}
