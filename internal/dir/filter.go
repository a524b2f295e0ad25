package dir

import (
	"errors"
	"fmt"
)

// Filter is the capability declaration each rule-consuming configuration
// provides: the full set of key kinds its programs may condition on.
// The allowed set must only contain kinds the lowering pass can handle
// for that use case; in particular, non-routing configs must never
// allowlist the connector key.
type Filter interface {
	AllowedKeys() []DirKeyKind
}

// MaxNestingDepth bounds the depth of IfStatement.Nested trees. Nesting
// depth is author-controlled input; the bound is enforced here at the
// authoring boundary so lowering keeps its single failure mode.
const MaxNestingDepth = 16

var (
	ErrKeyNotAllowed  = errors.New("key kind not allowed for this configuration")
	ErrMixedKinds     = errors.New("comparison mixes values of different key kinds")
	ErrEmptyValues    = errors.New("comparison has no values")
	ErrUnknownLogic   = errors.New("comparison has unknown logic")
	ErrEmptyCondition = errors.New("if statement has no condition")
	ErrNestingTooDeep = errors.New("if statement nesting exceeds maximum depth")
)

// ValidateProgram checks a program against a consumer's filter before it
// is lowered or persisted: every referenced key kind must be allowed,
// all values within one comparison must share a kind, every comparison
// must carry a known logic, and the condition tree must stay within
// MaxNestingDepth.
func ValidateProgram[O any](program *Program[O], filter Filter) error {
	allowed := make(map[DirKeyKind]struct{})
	for _, k := range filter.AllowedKeys() {
		allowed[k] = struct{}{}
	}

	for _, rule := range program.Rules {
		for _, stmt := range rule.Statements {
			if err := validateStatement(&stmt, allowed, 1); err != nil {
				return fmt.Errorf("rule %q: %w", rule.Name, err)
			}
		}
	}
	return nil
}

func validateStatement(stmt *IfStatement, allowed map[DirKeyKind]struct{}, depth int) error {
	if depth > MaxNestingDepth {
		return ErrNestingTooDeep
	}
	if len(stmt.Condition) == 0 {
		return ErrEmptyCondition
	}

	for _, cmp := range stmt.Condition {
		if len(cmp.Values) == 0 {
			return ErrEmptyValues
		}
		if !cmp.Logic.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownLogic, cmp.Logic)
		}
		kind := cmp.Values[0].Kind
		if _, ok := allowed[kind]; !ok {
			return fmt.Errorf("%w: %s", ErrKeyNotAllowed, kind)
		}
		for _, v := range cmp.Values[1:] {
			if v.Kind != kind {
				return fmt.Errorf("%w: %s and %s", ErrMixedKinds, kind, v.Kind)
			}
		}
	}

	for _, nested := range stmt.Nested {
		if err := validateStatement(&nested, allowed, depth+1); err != nil {
			return err
		}
	}
	return nil
}
