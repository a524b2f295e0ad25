package dir

// Per-kind member sets for enum-shaped keys. These are the only values a
// DirValue of the corresponding kind may carry; constructors reject
// anything outside the set. Member names are the wire spellings.

var paymentMethodMembers = []string{
	"card",
	"card_redirect",
	"pay_later",
	"wallet",
	"bank_redirect",
	"bank_transfer",
	"crypto",
	"bank_debit",
	"reward",
	"real_time_payment",
	"upi",
	"voucher",
	"gift_card",
	"open_banking",
	"mobile_payment",
}

var cardNetworkMembers = []string{
	"visa",
	"mastercard",
	"amex",
	"jcb",
	"diners_club",
	"discover",
	"cartes_bancaires",
	"union_pay",
	"interac",
	"ru_pay",
	"maestro",
}

var payLaterTypeMembers = []string{
	"affirm",
	"afterpay_clearpay",
	"alma",
	"flexiti",
	"klarna",
	"pay_bright",
	"walley",
	"atome",
	"breadpay",
}

var walletTypeMembers = []string{
	"bluecode",
	"google_pay",
	"amazon_pay",
	"skrill",
	"paysera",
	"apple_pay",
	"paypal",
	"ali_pay",
	"ali_pay_hk",
	"mb_way",
	"mobile_pay",
	"we_chat_pay",
	"samsung_pay",
	"go_pay",
	"kakao_pay",
	"twint",
	"gcash",
	"vipps",
	"momo",
	"dana",
	"touch_n_go",
	"swish",
	"cashapp",
	"venmo",
	"mifinity",
	"paze",
	"revolut_pay",
}

var upiTypeMembers = []string{
	"upi_collect",
	"upi_intent",
}

var voucherTypeMembers = []string{
	"boleto",
	"efecty",
	"pago_efectivo",
	"red_compra",
	"red_pagos",
	"alfamart",
	"indomaret",
	"seven_eleven",
	"lawson",
	"mini_stop",
	"family_mart",
	"seicomart",
	"pay_easy",
	"oxxo",
}

var bankTransferTypeMembers = []string{
	"multibanco",
	"pix",
	"pse",
	"ach",
	"sepa_bank_transfer",
	"bacs",
	"bca_bank_transfer",
	"bni_va",
	"bri_va",
	"cimb_va",
	"danamon_va",
	"mandiri_va",
	"permata_bank_transfer",
	"local_bank_transfer",
	"instant_bank_transfer",
	"instant_bank_transfer_finland",
	"instant_bank_transfer_poland",
	"indonesian_bank_transfer",
}

var giftCardTypeMembers = []string{
	"pay_safe_card",
	"givex",
}

var cardRedirectTypeMembers = []string{
	"benefit",
	"knet",
	"momo_atm",
	"card_redirect",
}

var bankRedirectTypeMembers = []string{
	"bizum",
	"giropay",
	"ideal",
	"sofort",
	"eft",
	"eps",
	"bancontact_card",
	"blik",
	"interac",
	"local_bank_redirect",
	"online_banking_czech_republic",
	"online_banking_finland",
	"online_banking_poland",
	"online_banking_slovakia",
	"online_banking_fpx",
	"online_banking_thailand",
	"open_banking_uk",
	"przelewy24",
	"trustly",
}

var cryptoTypeMembers = []string{
	"crypto_currency",
}

var realTimePaymentTypeMembers = []string{
	"fps",
	"duit_now",
	"prompt_pay",
	"viet_qr",
}

var openBankingTypeMembers = []string{
	"open_banking_pis",
}

var mobilePaymentTypeMembers = []string{
	"direct_carrier_billing",
}

var rewardTypeMembers = []string{
	"classic_reward",
	"evoucher",
}

var bankDebitTypeMembers = []string{
	"ach",
	"sepa",
	"bacs",
	"becs",
}

var authenticationTypeMembers = []string{
	"three_ds",
	"no_three_ds",
}

var captureMethodMembers = []string{
	"automatic",
	"manual",
	"manual_multiple",
	"scheduled",
	"sequential_automatic",
}

var mandateAcceptanceTypeMembers = []string{
	"online",
	"offline",
}

var mandateTypeMembers = []string{
	"single_use",
	"multi_use",
}

var paymentTypeMembers = []string{
	"setup_mandate",
	"non_mandate",
	"new_mandate",
	"update_mandate",
	"ppt_mandate",
}

var connectorMembers = []string{
	"adyen",
	"braintree",
	"cashtocode",
	"checkout",
	"cybersource",
	"globalpay",
	"payme",
	"placetopay",
	"stripe",
	"worldpay",
}

var setupFutureUsageMembers = []string{
	"on_session",
	"off_session",
}

var customerDevicePlatformMembers = []string{
	"web",
	"android",
	"ios",
}

var customerDeviceTypeMembers = []string{
	"mobile",
	"tablet",
	"desktop",
	"gaming_console",
}

// Display sizes follow the 3DS challenge window size classes.
var customerDeviceDisplaySizeMembers = []string{
	"size250x400",
	"size390x400",
	"size500x600",
	"size600x400",
	"size_full_screen",
}

var enumMembers = map[DirKeyKind][]string{
	KeyPaymentMethod:             paymentMethodMembers,
	KeyCardType:                  cardTypeMembers,
	KeyCardNetwork:               cardNetworkMembers,
	KeyPayLaterType:              payLaterTypeMembers,
	KeyWalletType:                walletTypeMembers,
	KeyUpiType:                   upiTypeMembers,
	KeyVoucherType:               voucherTypeMembers,
	KeyBankTransferType:          bankTransferTypeMembers,
	KeyGiftCardType:              giftCardTypeMembers,
	KeyCardRedirectType:          cardRedirectTypeMembers,
	KeyBankRedirectType:          bankRedirectTypeMembers,
	KeyCryptoType:                cryptoTypeMembers,
	KeyRealTimePaymentType:       realTimePaymentTypeMembers,
	KeyOpenBankingType:           openBankingTypeMembers,
	KeyMobilePaymentType:         mobilePaymentTypeMembers,
	KeyRewardType:                rewardTypeMembers,
	KeyBankDebitType:             bankDebitTypeMembers,
	KeyAuthenticationType:        authenticationTypeMembers,
	KeyCaptureMethod:             captureMethodMembers,
	KeyMandateAcceptanceType:     mandateAcceptanceTypeMembers,
	KeyMandateType:               mandateTypeMembers,
	KeyPaymentType:               paymentTypeMembers,
	KeyConnector:                 connectorMembers,
	KeySetupFutureUsage:          setupFutureUsageMembers,
	KeyCustomerDevicePlatform:    customerDevicePlatformMembers,
	KeyCustomerDeviceType:        customerDeviceTypeMembers,
	KeyCustomerDeviceDisplaySize: customerDeviceDisplaySizeMembers,
}

// EnumMembers returns the legal member set for an enum-shaped kind, or
// nil for kinds of other shapes.
func EnumMembers(kind DirKeyKind) []string {
	return enumMembers[kind]
}

// IsEnumMember reports whether member is legal for the given kind.
func IsEnumMember(kind DirKeyKind, member string) bool {
	for _, m := range enumMembers[kind] {
		if m == member {
			return true
		}
	}
	return false
}

// PaymentMethodFamilies lists the key kinds whose values collapse onto
// the shared payment method type domain during lowering.
func PaymentMethodFamilies() []DirKeyKind {
	return []DirKeyKind{
		KeyCardType,
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
	}
}
