// Package surcharge defines the surcharge decision use case: the output
// payload rules select, the records the API persists, and the key-kind
// allowlist its programs must stay within.
package surcharge

import (
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/kestrel/internal/dir"
)

// MinorUnit is a monetary amount in the currency's smallest unit.
type MinorUnit int64

// Percentage is a rate with two decimal places of precision.
type Percentage struct {
	Percentage float64 `json:"percentage"`
}

// Validate rejects rates outside [0, 100].
func (p Percentage) Validate() error {
	if p.Percentage < 0 || p.Percentage > 100 {
		return fmt.Errorf("percentage %v out of range [0, 100]", p.Percentage)
	}
	return nil
}

// Surcharge output variants.
const (
	OutputFixed = "fixed"
	OutputRate  = "rate"
)

// SurchargeOutput is the amount a matched rule applies: either a fixed
// minor-unit amount or a percentage of the payment amount. Serialized in
// the tagged {"type", "value"} form.
type SurchargeOutput struct {
	Type   string
	Amount MinorUnit
	Rate   Percentage
}

type fixedPayload struct {
	Amount MinorUnit `json:"amount"`
}

func (o SurchargeOutput) MarshalJSON() ([]byte, error) {
	switch o.Type {
	case OutputFixed:
		return json.Marshal(struct {
			Type  string       `json:"type"`
			Value fixedPayload `json:"value"`
		}{OutputFixed, fixedPayload{o.Amount}})
	case OutputRate:
		return json.Marshal(struct {
			Type  string     `json:"type"`
			Value Percentage `json:"value"`
		}{OutputRate, o.Rate})
	}
	return nil, fmt.Errorf("unknown surcharge output type %q", o.Type)
}

func (o *SurchargeOutput) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	switch tagged.Type {
	case OutputFixed:
		var payload fixedPayload
		if err := json.Unmarshal(tagged.Value, &payload); err != nil {
			return err
		}
		*o = SurchargeOutput{Type: OutputFixed, Amount: payload.Amount}
	case OutputRate:
		var rate Percentage
		if err := json.Unmarshal(tagged.Value, &rate); err != nil {
			return err
		}
		if err := rate.Validate(); err != nil {
			return err
		}
		*o = SurchargeOutput{Type: OutputRate, Rate: rate}
	default:
		return fmt.Errorf("unknown surcharge output type %q", tagged.Type)
	}
	return nil
}

// SurchargeDetailsOutput pairs the surcharge with an optional tax rate
// applied on top of it.
type SurchargeDetailsOutput struct {
	Surcharge      SurchargeOutput `json:"surcharge"`
	TaxOnSurcharge *Percentage     `json:"tax_on_surcharge"`
}

// SurchargeDecisionConfigs is the selection payload of surcharge
// programs. A nil SurchargeDetails means "no surcharge".
type SurchargeDecisionConfigs struct {
	SurchargeDetails *SurchargeDetailsOutput `json:"surcharge_details"`
}

// AllowedKeys declares the key kinds surcharge programs may condition
// on. The connector key is deliberately absent: lowering rejects it, so
// allowlisting it here would make every program unanalyzable.
func (SurchargeDecisionConfigs) AllowedKeys() []dir.DirKeyKind {
	return []dir.DirKeyKind{
		dir.KeyPaymentMethod,
		dir.KeyMetaData,
		dir.KeyPaymentAmount,
		dir.KeyPaymentCurrency,
		dir.KeyBillingCountry,
		dir.KeyCardNetwork,
		dir.KeyPayLaterType,
		dir.KeyWalletType,
		dir.KeyBankTransferType,
		dir.KeyBankRedirectType,
		dir.KeyBankDebitType,
		dir.KeyCryptoType,
		dir.KeyRealTimePaymentType,
	}
}

// MerchantSurchargeConfigs holds merchant-level display preferences.
type MerchantSurchargeConfigs struct {
	ShowSurchargeBreakupScreen *bool `json:"show_surcharge_breakup_screen"`
}

// SurchargeDecisionManagerRecord is the stored form of a named surcharge
// program.
type SurchargeDecisionManagerRecord struct {
	Name                     string                                `json:"name"`
	MerchantSurchargeConfigs MerchantSurchargeConfigs              `json:"merchant_surcharge_configs"`
	Algorithm                dir.Program[SurchargeDecisionConfigs] `json:"algorithm"`
	CreatedAt                int64                                 `json:"created_at"`
	ModifiedAt               int64                                 `json:"modified_at"`
}

// SurchargeDecisionManagerReq is the request body for creating or
// replacing a surcharge program.
type SurchargeDecisionManagerReq struct {
	Name                     string                                `json:"name"`
	MerchantSurchargeConfigs MerchantSurchargeConfigs              `json:"merchant_surcharge_configs"`
	Algorithm                dir.Program[SurchargeDecisionConfigs] `json:"algorithm"`
	Description              string                                `json:"description,omitempty"`
}
