package lowering

import (
	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/vir"
)

// Per-family conversions onto the shared payment method type domain.
// Each table enumerates every member of its source family with exactly
// one target; totality over the constructible member sets is asserted by
// TestFamilyConversionsTotal. The "card" entry of the card type table is
// only reachable when the paymentmethods_v2 tag admits the member.

var cardTypeConversions = map[string]vir.PaymentMethodType{
	"credit": "credit",
	"debit":  "debit",
	"card":   "card",
}

var payLaterTypeConversions = map[string]vir.PaymentMethodType{
	"affirm":            "affirm",
	"afterpay_clearpay": "afterpay_clearpay",
	"alma":              "alma",
	"flexiti":           "flexiti",
	"klarna":            "klarna",
	"pay_bright":        "pay_bright",
	"walley":            "walley",
	"atome":             "atome",
	"breadpay":          "breadpay",
}

var walletTypeConversions = map[string]vir.PaymentMethodType{
	"bluecode":    "bluecode",
	"google_pay":  "google_pay",
	"amazon_pay":  "amazon_pay",
	"skrill":      "skrill",
	"paysera":     "paysera",
	"apple_pay":   "apple_pay",
	"paypal":      "paypal",
	"ali_pay":     "ali_pay",
	"ali_pay_hk":  "ali_pay_hk",
	"mb_way":      "mb_way",
	"mobile_pay":  "mobile_pay",
	"we_chat_pay": "we_chat_pay",
	"samsung_pay": "samsung_pay",
	"go_pay":      "go_pay",
	"kakao_pay":   "kakao_pay",
	"twint":       "twint",
	"gcash":       "gcash",
	"vipps":       "vipps",
	"momo":        "momo",
	"dana":        "dana",
	"touch_n_go":  "touch_n_go",
	"swish":       "swish",
	"cashapp":     "cashapp",
	"venmo":       "venmo",
	"mifinity":    "mifinity",
	"paze":        "paze",
	"revolut_pay": "revolut_pay",
}

var bankDebitTypeConversions = map[string]vir.PaymentMethodType{
	"ach":  "ach",
	"sepa": "sepa",
	"bacs": "bacs",
	"becs": "becs",
}

var upiTypeConversions = map[string]vir.PaymentMethodType{
	"upi_collect": "upi_collect",
	"upi_intent":  "upi_intent",
}

var voucherTypeConversions = map[string]vir.PaymentMethodType{
	"boleto":        "boleto",
	"efecty":        "efecty",
	"pago_efectivo": "pago_efectivo",
	"red_compra":    "red_compra",
	"red_pagos":     "red_pagos",
	"alfamart":      "alfamart",
	"indomaret":     "indomaret",
	"seven_eleven":  "seven_eleven",
	"lawson":        "lawson",
	"mini_stop":     "mini_stop",
	"family_mart":   "family_mart",
	"seicomart":     "seicomart",
	"pay_easy":      "pay_easy",
	"oxxo":          "oxxo",
}

var bankTransferTypeConversions = map[string]vir.PaymentMethodType{
	"multibanco":                    "multibanco",
	"pix":                           "pix",
	"pse":                           "pse",
	"ach":                           "ach",
	"sepa_bank_transfer":            "sepa",
	"bacs":                          "bacs",
	"bca_bank_transfer":             "bca_bank_transfer",
	"bni_va":                        "bni_va",
	"bri_va":                        "bri_va",
	"cimb_va":                       "cimb_va",
	"danamon_va":                    "danamon_va",
	"mandiri_va":                    "mandiri_va",
	"permata_bank_transfer":         "permata_bank_transfer",
	"local_bank_transfer":           "local_bank_transfer",
	"instant_bank_transfer":         "instant_bank_transfer",
	"instant_bank_transfer_finland": "instant_bank_transfer_finland",
	"instant_bank_transfer_poland":  "instant_bank_transfer_poland",
	"indonesian_bank_transfer":      "indonesian_bank_transfer",
}

var giftCardTypeConversions = map[string]vir.PaymentMethodType{
	"pay_safe_card": "pay_safe_card",
	"givex":         "givex",
}

var cardRedirectTypeConversions = map[string]vir.PaymentMethodType{
	"benefit":       "benefit",
	"knet":          "knet",
	"momo_atm":      "momo_atm",
	"card_redirect": "card_redirect",
}

var mobilePaymentTypeConversions = map[string]vir.PaymentMethodType{
	"direct_carrier_billing": "direct_carrier_billing",
}

var bankRedirectTypeConversions = map[string]vir.PaymentMethodType{
	"bizum":                         "bizum",
	"giropay":                       "giropay",
	"ideal":                         "ideal",
	"sofort":                        "sofort",
	"eft":                           "eft",
	"eps":                           "eps",
	"bancontact_card":               "bancontact_card",
	"blik":                          "blik",
	"interac":                       "interac",
	"local_bank_redirect":           "local_bank_redirect",
	"online_banking_czech_republic": "online_banking_czech_republic",
	"online_banking_finland":        "online_banking_finland",
	"online_banking_poland":         "online_banking_poland",
	"online_banking_slovakia":       "online_banking_slovakia",
	"online_banking_fpx":            "online_banking_fpx",
	"online_banking_thailand":       "online_banking_thailand",
	"open_banking_uk":               "open_banking_uk",
	"przelewy24":                    "przelewy24",
	"trustly":                       "trustly",
}

var openBankingTypeConversions = map[string]vir.PaymentMethodType{
	"open_banking_pis": "open_banking_pis",
}

var cryptoTypeConversions = map[string]vir.PaymentMethodType{
	"crypto_currency": "crypto_currency",
}

var rewardTypeConversions = map[string]vir.PaymentMethodType{
	"classic_reward": "classic_reward",
	"evoucher":       "evoucher",
}

var realTimePaymentTypeConversions = map[string]vir.PaymentMethodType{
	"fps":        "fps",
	"duit_now":   "duit_now",
	"prompt_pay": "prompt_pay",
	"viet_qr":    "viet_qr",
}

// familyConversions indexes the per-family tables by source key kind.
var familyConversions = map[dir.DirKeyKind]map[string]vir.PaymentMethodType{
	dir.KeyCardType:            cardTypeConversions,
	dir.KeyPayLaterType:        payLaterTypeConversions,
	dir.KeyWalletType:          walletTypeConversions,
	dir.KeyUpiType:             upiTypeConversions,
	dir.KeyVoucherType:         voucherTypeConversions,
	dir.KeyBankTransferType:    bankTransferTypeConversions,
	dir.KeyGiftCardType:        giftCardTypeConversions,
	dir.KeyCardRedirectType:    cardRedirectTypeConversions,
	dir.KeyBankRedirectType:    bankRedirectTypeConversions,
	dir.KeyCryptoType:          cryptoTypeConversions,
	dir.KeyRealTimePaymentType: realTimePaymentTypeConversions,
	dir.KeyOpenBankingType:     openBankingTypeConversions,
	dir.KeyMobilePaymentType:   mobilePaymentTypeConversions,
	dir.KeyRewardType:          rewardTypeConversions,
	dir.KeyBankDebitType:       bankDebitTypeConversions,
}
