// Package lowering elaborates DIR programs into the valued intermediate
// representation. The pass is pure and total over everything except the
// connector key: encountering a connector value anywhere in the program
// aborts the whole lowering, all-or-nothing.
package lowering

import (
	"github.com/opensource-finance/kestrel/internal/analysis"
	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/vir"
)

// LowerValue maps a single DIR value into the valued domain. Every kind
// is handled explicitly: the fifteen payment-method family kinds
// collapse onto the shared payment method type, the connector kind is a
// terminal error, and everything else passes through 1:1 with only the
// wrapper tag renamed. TestLowerValueExhaustive iterates AllKeys to keep
// this switch total as the key universe grows.
func LowerValue(value dir.DirValue) (vir.EuclidValue, error) {
	switch value.Kind {
	case dir.KeyPaymentMethod:
		return vir.EuclidValue{Kind: vir.ValuePaymentMethod, Member: value.Member}, nil
	case dir.KeyCardBin:
		return vir.EuclidValue{Kind: vir.ValueCardBin, Str: value.Str}, nil
	case dir.KeyCardType:
		return familyValue(dir.KeyCardType, value.Member)
	case dir.KeyCardNetwork:
		return vir.EuclidValue{Kind: vir.ValueCardNetwork, Member: value.Member}, nil
	case dir.KeyMetaData:
		return vir.EuclidValue{Kind: vir.ValueMetadata, Metadata: value.Metadata}, nil
	case dir.KeyPayLaterType:
		return familyValue(dir.KeyPayLaterType, value.Member)
	case dir.KeyWalletType:
		return familyValue(dir.KeyWalletType, value.Member)
	case dir.KeyUpiType:
		return familyValue(dir.KeyUpiType, value.Member)
	case dir.KeyVoucherType:
		return familyValue(dir.KeyVoucherType, value.Member)
	case dir.KeyBankTransferType:
		return familyValue(dir.KeyBankTransferType, value.Member)
	case dir.KeyGiftCardType:
		return familyValue(dir.KeyGiftCardType, value.Member)
	case dir.KeyCardRedirectType:
		return familyValue(dir.KeyCardRedirectType, value.Member)
	case dir.KeyBankRedirectType:
		return familyValue(dir.KeyBankRedirectType, value.Member)
	case dir.KeyCryptoType:
		return familyValue(dir.KeyCryptoType, value.Member)
	case dir.KeyRealTimePaymentType:
		return familyValue(dir.KeyRealTimePaymentType, value.Member)
	case dir.KeyOpenBankingType:
		return familyValue(dir.KeyOpenBankingType, value.Member)
	case dir.KeyMobilePaymentType:
		return familyValue(dir.KeyMobilePaymentType, value.Member)
	case dir.KeyRewardType:
		return familyValue(dir.KeyRewardType, value.Member)
	case dir.KeyBankDebitType:
		return familyValue(dir.KeyBankDebitType, value.Member)
	case dir.KeyAuthenticationType:
		return vir.EuclidValue{Kind: vir.ValueAuthenticationType, Member: value.Member}, nil
	case dir.KeyCaptureMethod:
		return vir.EuclidValue{Kind: vir.ValueCaptureMethod, Member: value.Member}, nil
	case dir.KeyPaymentAmount:
		return vir.EuclidValue{Kind: vir.ValuePaymentAmount, Number: value.Number}, nil
	case dir.KeyPaymentCurrency:
		return vir.EuclidValue{Kind: vir.ValuePaymentCurrency, Str: value.Str}, nil
	case dir.KeyBusinessCountry:
		return vir.EuclidValue{Kind: vir.ValueBusinessCountry, Str: value.Str}, nil
	case dir.KeyBillingCountry:
		return vir.EuclidValue{Kind: vir.ValueBillingCountry, Str: value.Str}, nil
	case dir.KeyMandateAcceptanceType:
		return vir.EuclidValue{Kind: vir.ValueMandateAcceptanceType, Member: value.Member}, nil
	case dir.KeyMandateType:
		return vir.EuclidValue{Kind: vir.ValueMandateType, Member: value.Member}, nil
	case dir.KeyPaymentType:
		return vir.EuclidValue{Kind: vir.ValuePaymentType, Member: value.Member}, nil
	case dir.KeyConnector:
		return vir.EuclidValue{}, analysis.UnsupportedProgramKey(dir.KeyConnector)
	case dir.KeyBusinessLabel:
		return vir.EuclidValue{Kind: vir.ValueBusinessLabel, Str: value.Str}, nil
	case dir.KeySetupFutureUsage:
		return vir.EuclidValue{Kind: vir.ValueSetupFutureUsage, Member: value.Member}, nil
	case dir.KeyIssuerName:
		return vir.EuclidValue{Kind: vir.ValueIssuerName, Str: value.Str}, nil
	case dir.KeyIssuerCountry:
		return vir.EuclidValue{Kind: vir.ValueIssuerCountry, Str: value.Str}, nil
	case dir.KeyCustomerDevicePlatform:
		return vir.EuclidValue{Kind: vir.ValueCustomerDevicePlatform, Member: value.Member}, nil
	case dir.KeyCustomerDeviceType:
		return vir.EuclidValue{Kind: vir.ValueCustomerDeviceType, Member: value.Member}, nil
	case dir.KeyCustomerDeviceDisplaySize:
		return vir.EuclidValue{Kind: vir.ValueCustomerDeviceDisplaySize, Member: value.Member}, nil
	case dir.KeyAcquirerCountry:
		return vir.EuclidValue{Kind: vir.ValueAcquirerCountry, Str: value.Str}, nil
	case dir.KeyAcquirerFraudRate:
		return vir.EuclidValue{Kind: vir.ValueAcquirerFraudRate, Number: value.Number}, nil
	}
	// Unreachable for values built through the dir constructors.
	return vir.EuclidValue{}, analysis.UnsupportedProgramKey(value.Kind)
}

// familyValue applies a family conversion table. The tables are total
// over the constructible member sets, so a lookup cannot miss for values
// built through the dir constructors.
func familyValue(kind dir.DirKeyKind, member string) (vir.EuclidValue, error) {
	return vir.EuclidValue{
		Kind:   vir.ValuePaymentMethodType,
		Member: string(familyConversions[kind][member]),
	}, nil
}

// LowerComparison lowers a comparison's values element-wise, stopping at
// the first failure. Logic maps 1:1 and metadata passes through.
func LowerComparison(cmp dir.Comparison) (vir.ValuedComparison, error) {
	values := make([]vir.EuclidValue, 0, len(cmp.Values))
	for _, v := range cmp.Values {
		lowered, err := LowerValue(v)
		if err != nil {
			return vir.ValuedComparison{}, err
		}
		values = append(values, lowered)
	}

	var logic vir.ComparisonLogic
	switch cmp.Logic {
	case dir.NegativeConjunction:
		logic = vir.NegativeConjunction
	case dir.PositiveDisjunction:
		logic = vir.PositiveDisjunction
	}

	return vir.ValuedComparison{
		Values:   values,
		Logic:    logic,
		Metadata: cmp.Metadata,
	}, nil
}

// LowerIfStatement lowers a statement's condition and recursively its
// nested statements, fail-fast. A nil Nested stays nil and a present but
// empty Nested stays an empty slice.
func LowerIfStatement(stmt dir.IfStatement) (vir.ValuedIfStatement, error) {
	condition := make([]vir.ValuedComparison, 0, len(stmt.Condition))
	for _, cmp := range stmt.Condition {
		lowered, err := LowerComparison(cmp)
		if err != nil {
			return vir.ValuedIfStatement{}, err
		}
		condition = append(condition, lowered)
	}

	var nested []vir.ValuedIfStatement
	if stmt.Nested != nil {
		nested = make([]vir.ValuedIfStatement, 0, len(stmt.Nested))
		for _, inner := range stmt.Nested {
			lowered, err := LowerIfStatement(inner)
			if err != nil {
				return vir.ValuedIfStatement{}, err
			}
			nested = append(nested, lowered)
		}
	}

	return vir.ValuedIfStatement{
		Condition: condition,
		Nested:    nested,
	}, nil
}

// LowerRule copies the rule's name and selection payload unchanged and
// lowers its statements, fail-fast. The payload type O is never touched.
func LowerRule[O any](rule dir.Rule[O]) (vir.ValuedRule[O], error) {
	statements := make([]vir.ValuedIfStatement, 0, len(rule.Statements))
	for _, stmt := range rule.Statements {
		lowered, err := LowerIfStatement(stmt)
		if err != nil {
			return vir.ValuedRule[O]{}, err
		}
		statements = append(statements, lowered)
	}

	return vir.ValuedRule[O]{
		Name:               rule.Name,
		ConnectorSelection: rule.ConnectorSelection,
		Statements:         statements,
	}, nil
}

// LowerProgram is the entry point of the pass. The default selection and
// program metadata pass through unchanged; rules are lowered in order,
// fail-fast, and the first leaf error is wrapped in an AnalysisError
// with an empty metadata map.
func LowerProgram[O any](program *dir.Program[O]) (*vir.ValuedProgram[O], error) {
	rules := make([]vir.ValuedRule[O], 0, len(program.Rules))
	for _, rule := range program.Rules {
		lowered, err := LowerRule(rule)
		if err != nil {
			errType, ok := err.(analysis.AnalysisErrorType)
			if !ok {
				errType = analysis.AnalysisErrorType{Type: err.Error()}
			}
			return nil, &analysis.AnalysisError{
				Type:     errType,
				Metadata: map[string]any{},
			}
		}
		rules = append(rules, lowered)
	}

	return &vir.ValuedProgram[O]{
		DefaultSelection: program.DefaultSelection,
		Rules:            rules,
		Metadata:         program.Metadata,
	}, nil
}
