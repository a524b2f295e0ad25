// Package dir defines the Decision Intermediate Representation: the
// merchant-facing rule language for routing and surcharge decisions.
// A program conditions on a closed set of transaction attributes (key
// kinds), each with a fixed value shape.
package dir

// DirKeyKind identifies a class of payment-transaction fact a rule may
// condition on. The set is closed: values of any other kind cannot be
// constructed, and every downstream match over kinds must handle all of
// them (enforced by tests iterating AllKeys).
type DirKeyKind string

const (
	KeyPaymentMethod             DirKeyKind = "payment_method"
	KeyCardBin                   DirKeyKind = "card_bin"
	KeyCardType                  DirKeyKind = "card_type"
	KeyCardNetwork               DirKeyKind = "card_network"
	KeyMetaData                  DirKeyKind = "metadata"
	KeyPayLaterType              DirKeyKind = "pay_later_type"
	KeyWalletType                DirKeyKind = "wallet_type"
	KeyUpiType                   DirKeyKind = "upi_type"
	KeyVoucherType               DirKeyKind = "voucher_type"
	KeyBankTransferType          DirKeyKind = "bank_transfer_type"
	KeyGiftCardType              DirKeyKind = "gift_card_type"
	KeyCardRedirectType          DirKeyKind = "card_redirect_type"
	KeyBankRedirectType          DirKeyKind = "bank_redirect_type"
	KeyCryptoType                DirKeyKind = "crypto_type"
	KeyRealTimePaymentType       DirKeyKind = "real_time_payment_type"
	KeyOpenBankingType           DirKeyKind = "open_banking_type"
	KeyMobilePaymentType         DirKeyKind = "mobile_payment_type"
	KeyRewardType                DirKeyKind = "reward_type"
	KeyBankDebitType             DirKeyKind = "bank_debit_type"
	KeyAuthenticationType        DirKeyKind = "authentication_type"
	KeyCaptureMethod             DirKeyKind = "capture_method"
	KeyPaymentAmount             DirKeyKind = "payment_amount"
	KeyPaymentCurrency           DirKeyKind = "payment_currency"
	KeyBusinessCountry           DirKeyKind = "business_country"
	KeyBillingCountry            DirKeyKind = "billing_country"
	KeyMandateAcceptanceType     DirKeyKind = "mandate_acceptance_type"
	KeyMandateType               DirKeyKind = "mandate_type"
	KeyPaymentType               DirKeyKind = "payment_type"
	KeyConnector                 DirKeyKind = "connector"
	KeyBusinessLabel             DirKeyKind = "business_label"
	KeySetupFutureUsage          DirKeyKind = "setup_future_usage"
	KeyIssuerName                DirKeyKind = "issuer_name"
	KeyIssuerCountry             DirKeyKind = "issuer_country"
	KeyCustomerDevicePlatform    DirKeyKind = "customer_device_platform"
	KeyCustomerDeviceType        DirKeyKind = "customer_device_type"
	KeyCustomerDeviceDisplaySize DirKeyKind = "customer_device_display_size"
	KeyAcquirerCountry           DirKeyKind = "acquirer_country"
	KeyAcquirerFraudRate         DirKeyKind = "acquirer_fraud_rate"
)

// AllKeys returns every DirKeyKind. Exhaustiveness tests over lowering
// and the filter contract iterate this list.
func AllKeys() []DirKeyKind {
	return []DirKeyKind{
		KeyPaymentMethod,
		KeyCardBin,
		KeyCardType,
		KeyCardNetwork,
		KeyMetaData,
		KeyPayLaterType,
		KeyWalletType,
		KeyUpiType,
		KeyVoucherType,
		KeyBankTransferType,
		KeyGiftCardType,
		KeyCardRedirectType,
		KeyBankRedirectType,
		KeyCryptoType,
		KeyRealTimePaymentType,
		KeyOpenBankingType,
		KeyMobilePaymentType,
		KeyRewardType,
		KeyBankDebitType,
		KeyAuthenticationType,
		KeyCaptureMethod,
		KeyPaymentAmount,
		KeyPaymentCurrency,
		KeyBusinessCountry,
		KeyBillingCountry,
		KeyMandateAcceptanceType,
		KeyMandateType,
		KeyPaymentType,
		KeyConnector,
		KeyBusinessLabel,
		KeySetupFutureUsage,
		KeyIssuerName,
		KeyIssuerCountry,
		KeyCustomerDevicePlatform,
		KeyCustomerDeviceType,
		KeyCustomerDeviceDisplaySize,
		KeyAcquirerCountry,
		KeyAcquirerFraudRate,
	}
}

// ValueShape describes the payload a key kind carries.
type ValueShape int

const (
	// ShapeEnum carries one member of a closed per-kind member set.
	ShapeEnum ValueShape = iota

	// ShapeNumber carries a NumValue (amount in minor units or rate in
	// basis points, with an optional comparison refinement).
	ShapeNumber

	// ShapeString carries a free-form string.
	ShapeString

	// ShapeMetadata carries a key/value pair.
	ShapeMetadata

	// ShapeCountry carries an ISO 3166-1 alpha-2 country code.
	ShapeCountry

	// ShapeCurrency carries an ISO 4217 alpha-3 currency code.
	ShapeCurrency
)

// ShapeOf returns the value shape for a key kind.
func ShapeOf(kind DirKeyKind) ValueShape {
	switch kind {
	case KeyPaymentAmount, KeyAcquirerFraudRate:
		return ShapeNumber
	case KeyCardBin, KeyBusinessLabel, KeyIssuerName:
		return ShapeString
	case KeyMetaData:
		return ShapeMetadata
	case KeyBusinessCountry, KeyBillingCountry, KeyIssuerCountry, KeyAcquirerCountry:
		return ShapeCountry
	case KeyPaymentCurrency:
		return ShapeCurrency
	default:
		return ShapeEnum
	}
}

// IsValid reports whether the kind is part of the closed key universe.
func (k DirKeyKind) IsValid() bool {
	_, ok := enumMembers[k]
	if ok {
		return true
	}
	switch k {
	case KeyCardBin, KeyMetaData, KeyPaymentAmount, KeyPaymentCurrency,
		KeyBusinessCountry, KeyBillingCountry, KeyBusinessLabel,
		KeyIssuerName, KeyIssuerCountry, KeyAcquirerCountry,
		KeyAcquirerFraudRate:
		return true
	}
	return false
}

func (k DirKeyKind) String() string {
	return string(k)
}
