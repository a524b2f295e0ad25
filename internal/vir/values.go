// Package vir defines the Valued Intermediate Representation: the
// narrowed, analysis-ready form a DIR program is lowered into. The value
// domain collapses all payment-method family kinds onto one shared
// payment method type and has no counterpart for the connector key.
package vir

import (
	"encoding/json"

	"github.com/opensource-finance/kestrel/internal/dir"
)

// PaymentMethodType is the shared global enum every payment-method
// family member is mapped onto during lowering.
type PaymentMethodType string

// ValueKind tags an EuclidValue variant. One variant exists per
// lowerable DIR key kind; the fifteen family kinds share
// ValuePaymentMethodType and the connector kind has no variant at all.
type ValueKind string

const (
	ValuePaymentMethod             ValueKind = "payment_method"
	ValueCardBin                   ValueKind = "card_bin"
	ValuePaymentMethodType         ValueKind = "payment_method_type"
	ValueCardNetwork               ValueKind = "card_network"
	ValueMetadata                  ValueKind = "metadata"
	ValueAuthenticationType        ValueKind = "authentication_type"
	ValueCaptureMethod             ValueKind = "capture_method"
	ValuePaymentAmount             ValueKind = "payment_amount"
	ValuePaymentCurrency           ValueKind = "payment_currency"
	ValueBusinessCountry           ValueKind = "business_country"
	ValueBillingCountry            ValueKind = "billing_country"
	ValueMandateAcceptanceType     ValueKind = "mandate_acceptance_type"
	ValueMandateType               ValueKind = "mandate_type"
	ValuePaymentType               ValueKind = "payment_type"
	ValueBusinessLabel             ValueKind = "business_label"
	ValueSetupFutureUsage          ValueKind = "setup_future_usage"
	ValueIssuerName                ValueKind = "issuer_name"
	ValueIssuerCountry             ValueKind = "issuer_country"
	ValueCustomerDevicePlatform    ValueKind = "customer_device_platform"
	ValueCustomerDeviceType        ValueKind = "customer_device_type"
	ValueCustomerDeviceDisplaySize ValueKind = "customer_device_display_size"
	ValueAcquirerCountry           ValueKind = "acquirer_country"
	ValueAcquirerFraudRate         ValueKind = "acquirer_fraud_rate"
)

// EuclidValue is the VIR-side tagged union. Payload fields mirror the
// DIR value shapes; for ValuePaymentMethodType the Member field carries
// a PaymentMethodType member.
type EuclidValue struct {
	Kind     ValueKind
	Member   string
	Number   *dir.NumValue
	Str      string
	Metadata *dir.MetadataValue
}

type taggedValue struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON mirrors the DIR tagged-value wire form.
func (v EuclidValue) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case ValuePaymentAmount, ValueAcquirerFraudRate:
		payload = v.Number
	case ValueCardBin, ValueBusinessLabel, ValueIssuerName, ValuePaymentCurrency,
		ValueBusinessCountry, ValueBillingCountry, ValueIssuerCountry, ValueAcquirerCountry:
		payload = v.Str
	case ValueMetadata:
		payload = v.Metadata
	default:
		payload = v.Member
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: v.Kind, Value: raw})
}
