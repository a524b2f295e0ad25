package lowering

import (
	"errors"
	"testing"

	"github.com/opensource-finance/kestrel/internal/analysis"
	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/vir"
)

// sampleValue builds one representative value for a key kind through the
// regular constructors.
func sampleValue(t *testing.T, kind dir.DirKeyKind) dir.DirValue {
	t.Helper()

	var (
		v   dir.DirValue
		err error
	)
	switch dir.ShapeOf(kind) {
	case dir.ShapeEnum:
		v, err = dir.NewEnumValue(kind, dir.EnumMembers(kind)[0])
	case dir.ShapeNumber:
		v, err = dir.NewNumberValue(kind, dir.NumValue{Number: 100})
	case dir.ShapeString:
		v, err = dir.NewStringValue(kind, "sample")
	case dir.ShapeMetadata:
		v, err = dir.NewMetadataValue("order_category", "digital")
	case dir.ShapeCountry:
		v, err = dir.NewCountryValue(kind, "DE")
	case dir.ShapeCurrency:
		v, err = dir.NewCurrencyValue("EUR")
	}
	if err != nil {
		t.Fatalf("building sample for %q: %v", kind, err)
	}
	return v
}

func TestLowerValueExhaustive(t *testing.T) {
	// The connector key is the ONLY kind lowering rejects. Every other
	// kind must map, and the fifteen family kinds must collapse onto the
	// shared payment method type.
	families := make(map[dir.DirKeyKind]bool)
	for _, k := range dir.PaymentMethodFamilies() {
		families[k] = true
	}

	for _, kind := range dir.AllKeys() {
		value := sampleValue(t, kind)
		lowered, err := LowerValue(value)

		if kind == dir.KeyConnector {
			if err == nil {
				t.Fatalf("connector value lowered without error")
			}
			var errType analysis.AnalysisErrorType
			if !errors.As(err, &errType) {
				t.Fatalf("connector error has wrong type: %T", err)
			}
			if errType.Type != analysis.ErrorTypeUnsupportedProgramKey || errType.Key != dir.KeyConnector {
				t.Errorf("unexpected connector error: %+v", errType)
			}
			continue
		}

		if err != nil {
			t.Errorf("lowering %q failed: %v", kind, err)
			continue
		}
		if families[kind] && lowered.Kind != vir.ValuePaymentMethodType {
			t.Errorf("family kind %q lowered to %q, want payment_method_type", kind, lowered.Kind)
		}
		if !families[kind] && lowered.Kind == vir.ValuePaymentMethodType {
			t.Errorf("non-family kind %q lowered to payment_method_type", kind)
		}
	}
}

func TestFamilyConversionsTotal(t *testing.T) {
	// Every constructible member of every family kind must have exactly
	// one conversion target.
	for _, kind := range dir.PaymentMethodFamilies() {
		table, ok := familyConversions[kind]
		if !ok {
			t.Errorf("family kind %q has no conversion table", kind)
			continue
		}
		for _, member := range dir.EnumMembers(kind) {
			target, ok := table[member]
			if !ok || target == "" {
				t.Errorf("member %q of %q has no conversion target", member, kind)
			}
		}
	}
}

func TestBankTransferSepaRenamed(t *testing.T) {
	// The lone non-identity conversion: sepa_bank_transfer collapses to
	// the shared "sepa" member, colliding intentionally with bank debit's
	// sepa.
	value := mustEnumValue(t, dir.KeyBankTransferType, "sepa_bank_transfer")

	lowered, err := LowerValue(value)
	if err != nil {
		t.Fatalf("LowerValue failed: %v", err)
	}
	if lowered.Member != "sepa" {
		t.Errorf("expected member sepa, got %q", lowered.Member)
	}

	debit := mustEnumValue(t, dir.KeyBankDebitType, "sepa")
	loweredDebit, err := LowerValue(debit)
	if err != nil {
		t.Fatalf("LowerValue failed: %v", err)
	}
	if loweredDebit.Member != lowered.Member || loweredDebit.Kind != lowered.Kind {
		t.Errorf("sepa members did not collapse: %+v vs %+v", lowered, loweredDebit)
	}
}

func TestIdentityKindsPassThrough(t *testing.T) {
	gt := dir.RefinementGreaterThan
	amount, err := dir.NewNumberValue(dir.KeyPaymentAmount, dir.NumValue{Number: 10000, Refinement: &gt})
	if err != nil {
		t.Fatalf("NewNumberValue failed: %v", err)
	}

	lowered, err := LowerValue(amount)
	if err != nil {
		t.Fatalf("LowerValue failed: %v", err)
	}
	if lowered.Kind != vir.ValuePaymentAmount {
		t.Errorf("expected payment_amount kind, got %q", lowered.Kind)
	}
	if lowered.Number == nil || lowered.Number.Number != 10000 || lowered.Number.Refinement == nil {
		t.Errorf("number payload not preserved: %+v", lowered.Number)
	}

	meta, _ := dir.NewMetadataValue("order_category", "digital")
	loweredMeta, err := LowerValue(meta)
	if err != nil {
		t.Fatalf("LowerValue failed: %v", err)
	}
	if loweredMeta.Kind != vir.ValueMetadata || loweredMeta.Metadata == nil || loweredMeta.Metadata.Key != "order_category" {
		t.Errorf("metadata payload not preserved: %+v", loweredMeta)
	}
}

func TestLowerComparison(t *testing.T) {
	t.Run("LogicAndMetadataPassThrough", func(t *testing.T) {
		cmp := dir.Comparison{
			Values:   []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
			Logic:    dir.NegativeConjunction,
			Metadata: dir.Metadata{"source": "dashboard"},
		}

		lowered, err := LowerComparison(cmp)
		if err != nil {
			t.Fatalf("LowerComparison failed: %v", err)
		}
		if lowered.Logic != vir.NegativeConjunction {
			t.Errorf("expected negative conjunction, got %q", lowered.Logic)
		}
		if lowered.Metadata["source"] != "dashboard" {
			t.Errorf("metadata not preserved: %+v", lowered.Metadata)
		}
		if len(lowered.Values) != 1 {
			t.Errorf("expected 1 lowered value, got %d", len(lowered.Values))
		}
	})

	t.Run("FailFastOnConnector", func(t *testing.T) {
		cmp := dir.Comparison{
			Values: []dir.DirValue{
				mustEnumValue(t, dir.KeyConnector, "stripe"),
				mustEnumValue(t, dir.KeyConnector, "adyen"),
			},
			Logic: dir.PositiveDisjunction,
		}

		_, err := LowerComparison(cmp)
		var errType analysis.AnalysisErrorType
		if !errors.As(err, &errType) || errType.Key != dir.KeyConnector {
			t.Errorf("expected unsupported connector key, got: %v", err)
		}
	})
}

func TestLowerIfStatement(t *testing.T) {
	cardCmp := func() dir.Comparison {
		return dir.Comparison{
			Values: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
			Logic:  dir.PositiveDisjunction,
		}
	}

	t.Run("NilNestedStaysNil", func(t *testing.T) {
		lowered, err := LowerIfStatement(dir.IfStatement{Condition: []dir.Comparison{cardCmp()}})
		if err != nil {
			t.Fatalf("LowerIfStatement failed: %v", err)
		}
		if lowered.Nested != nil {
			t.Error("nil Nested became non-nil")
		}
	})

	t.Run("EmptyNestedStaysEmpty", func(t *testing.T) {
		lowered, err := LowerIfStatement(dir.IfStatement{
			Condition: []dir.Comparison{cardCmp()},
			Nested:    []dir.IfStatement{},
		})
		if err != nil {
			t.Fatalf("LowerIfStatement failed: %v", err)
		}
		if lowered.Nested == nil {
			t.Error("present-but-empty Nested collapsed to nil")
		}
		if len(lowered.Nested) != 0 {
			t.Errorf("expected empty Nested, got %d entries", len(lowered.Nested))
		}
	})

	t.Run("NestedErrorPropagates", func(t *testing.T) {
		stmt := dir.IfStatement{
			Condition: []dir.Comparison{cardCmp()},
			Nested: []dir.IfStatement{
				{
					Condition: []dir.Comparison{{
						Values: []dir.DirValue{mustEnumValue(t, dir.KeyConnector, "stripe")},
						Logic:  dir.PositiveDisjunction,
					}},
				},
			},
		}

		if _, err := LowerIfStatement(stmt); err == nil {
			t.Error("expected nested connector reference to fail the statement")
		}
	})
}

func TestLowerProgram(t *testing.T) {
	cardRule := func(name, selection string) dir.Rule[string] {
		return dir.Rule[string]{
			Name:               name,
			ConnectorSelection: selection,
			Statements: []dir.IfStatement{
				{
					Condition: []dir.Comparison{{
						Values: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
						Logic:  dir.PositiveDisjunction,
					}},
				},
			},
		}
	}

	t.Run("PreservesOrderAndPayloads", func(t *testing.T) {
		program := &dir.Program[string]{
			DefaultSelection: "fallback",
			Rules: []dir.Rule[string]{
				cardRule("first", "selection-a"),
				cardRule("second", "selection-b"),
			},
			Metadata: dir.Metadata{"version": "1"},
		}

		lowered, err := LowerProgram(program)
		if err != nil {
			t.Fatalf("LowerProgram failed: %v", err)
		}

		if lowered.DefaultSelection != "fallback" {
			t.Errorf("default selection changed: %q", lowered.DefaultSelection)
		}
		if len(lowered.Rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(lowered.Rules))
		}
		if lowered.Rules[0].Name != "first" || lowered.Rules[1].Name != "second" {
			t.Errorf("rule order changed: %q, %q", lowered.Rules[0].Name, lowered.Rules[1].Name)
		}
		if lowered.Rules[0].ConnectorSelection != "selection-a" {
			t.Errorf("selection payload changed: %q", lowered.Rules[0].ConnectorSelection)
		}
		if lowered.Metadata["version"] != "1" {
			t.Errorf("program metadata changed: %+v", lowered.Metadata)
		}
	})

	t.Run("AllOrNothing", func(t *testing.T) {
		// A connector reference in the LAST rule still fails the whole
		// program; no partial output is produced.
		bad := cardRule("bad", "selection-c")
		bad.Statements[0].Condition[0].Values = []dir.DirValue{
			mustEnumValue(t, dir.KeyConnector, "stripe"),
		}

		program := &dir.Program[string]{
			DefaultSelection: "fallback",
			Rules:            []dir.Rule[string]{cardRule("good", "selection-a"), bad},
		}

		lowered, err := LowerProgram(program)
		if lowered != nil {
			t.Error("expected nil program on failure")
		}

		var analysisErr *analysis.AnalysisError
		if !errors.As(err, &analysisErr) {
			t.Fatalf("expected AnalysisError, got %T: %v", err, err)
		}
		if analysisErr.Type.Type != analysis.ErrorTypeUnsupportedProgramKey {
			t.Errorf("unexpected error type: %+v", analysisErr.Type)
		}
		if analysisErr.Type.Key != dir.KeyConnector {
			t.Errorf("expected connector key in error, got %q", analysisErr.Type.Key)
		}
		if analysisErr.Metadata == nil || len(analysisErr.Metadata) != 0 {
			t.Errorf("expected empty metadata map, got %+v", analysisErr.Metadata)
		}
	})

	t.Run("EmptyProgram", func(t *testing.T) {
		program := &dir.Program[string]{DefaultSelection: "fallback"}

		lowered, err := LowerProgram(program)
		if err != nil {
			t.Fatalf("LowerProgram failed: %v", err)
		}
		if len(lowered.Rules) != 0 {
			t.Errorf("expected no rules, got %d", len(lowered.Rules))
		}
	})
}

func mustEnumValue(t *testing.T, kind dir.DirKeyKind, member string) dir.DirValue {
	t.Helper()
	v, err := dir.NewEnumValue(kind, member)
	if err != nil {
		t.Fatalf("NewEnumValue(%s, %s): %v", kind, member, err)
	}
	return v
}
