package surcharge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/opensource-finance/kestrel/internal/dir"
)

func TestPercentageValidate(t *testing.T) {
	for _, valid := range []float64{0, 2.5, 100} {
		if err := (Percentage{Percentage: valid}).Validate(); err != nil {
			t.Errorf("expected %v to validate, got: %v", valid, err)
		}
	}
	for _, invalid := range []float64{-0.01, 100.01, 250} {
		if err := (Percentage{Percentage: invalid}).Validate(); err == nil {
			t.Errorf("expected %v to be rejected", invalid)
		}
	}
}

func TestSurchargeOutputJSON(t *testing.T) {
	t.Run("FixedRoundTrip", func(t *testing.T) {
		output := SurchargeOutput{Type: OutputFixed, Amount: 150}

		data, err := json.Marshal(output)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(data), `"type":"fixed"`) {
			t.Errorf("expected tagged fixed form, got: %s", data)
		}

		var back SurchargeOutput
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.Type != OutputFixed || back.Amount != 150 {
			t.Errorf("round trip changed output: %+v", back)
		}
	})

	t.Run("RateRoundTrip", func(t *testing.T) {
		output := SurchargeOutput{Type: OutputRate, Rate: Percentage{Percentage: 2.5}}

		data, err := json.Marshal(output)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var back SurchargeOutput
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if back.Type != OutputRate || back.Rate.Percentage != 2.5 {
			t.Errorf("round trip changed output: %+v", back)
		}
	})

	t.Run("RateValidatedOnDecode", func(t *testing.T) {
		var output SurchargeOutput
		err := json.Unmarshal([]byte(`{"type":"rate","value":{"percentage":150}}`), &output)
		if err == nil {
			t.Error("expected out-of-range rate to be rejected")
		}
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		var output SurchargeOutput
		if err := json.Unmarshal([]byte(`{"type":"tiered","value":{}}`), &output); err == nil {
			t.Error("expected error for unknown output type")
		}

		if _, err := json.Marshal(SurchargeOutput{Type: "tiered"}); err == nil {
			t.Error("expected marshal error for unknown output type")
		}
	})
}

func TestSurchargeDecisionConfigsJSON(t *testing.T) {
	// A nil SurchargeDetails means "no surcharge" and must survive a
	// round trip as nil, distinct from a zero-valued details struct.
	var noSurcharge SurchargeDecisionConfigs

	data, err := json.Marshal(noSurcharge)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"surcharge_details":null`) {
		t.Errorf("expected explicit null details, got: %s", data)
	}

	var back SurchargeDecisionConfigs
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.SurchargeDetails != nil {
		t.Errorf("nil details became non-nil: %+v", back.SurchargeDetails)
	}

	tax := Percentage{Percentage: 19}
	withSurcharge := SurchargeDecisionConfigs{
		SurchargeDetails: &SurchargeDetailsOutput{
			Surcharge:      SurchargeOutput{Type: OutputFixed, Amount: 150},
			TaxOnSurcharge: &tax,
		},
	}

	data, err = json.Marshal(withSurcharge)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.SurchargeDetails == nil || back.SurchargeDetails.Surcharge.Amount != 150 {
		t.Errorf("round trip changed details: %+v", back.SurchargeDetails)
	}
	if back.SurchargeDetails.TaxOnSurcharge == nil || back.SurchargeDetails.TaxOnSurcharge.Percentage != 19 {
		t.Errorf("tax on surcharge lost: %+v", back.SurchargeDetails.TaxOnSurcharge)
	}
}

func TestAllowedKeys(t *testing.T) {
	allowed := SurchargeDecisionConfigs{}.AllowedKeys()

	seen := make(map[dir.DirKeyKind]struct{}, len(allowed))
	for _, k := range allowed {
		if !k.IsValid() {
			t.Errorf("allowlist contains unknown key %q", k)
		}
		seen[k] = struct{}{}
	}

	if _, ok := seen[dir.KeyConnector]; ok {
		t.Fatal("surcharge config must not allowlist the connector key")
	}
	if _, ok := seen[dir.KeyPaymentAmount]; !ok {
		t.Error("surcharge programs must be able to condition on the amount")
	}
	if _, ok := seen[dir.KeyPaymentMethod]; !ok {
		t.Error("surcharge programs must be able to condition on the payment method")
	}
}

func TestRecordJSON(t *testing.T) {
	show := true
	record := SurchargeDecisionManagerRecord{
		Name: "international card surcharge",
		MerchantSurchargeConfigs: MerchantSurchargeConfigs{
			ShowSurchargeBreakupScreen: &show,
		},
		Algorithm: dir.Program[SurchargeDecisionConfigs]{
			DefaultSelection: SurchargeDecisionConfigs{},
		},
		CreatedAt:  1700000000,
		ModifiedAt: 1700000100,
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back SurchargeDecisionManagerRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Name != record.Name {
		t.Errorf("round trip changed name: %q", back.Name)
	}
	if back.MerchantSurchargeConfigs.ShowSurchargeBreakupScreen == nil ||
		!*back.MerchantSurchargeConfigs.ShowSurchargeBreakupScreen {
		t.Error("breakup screen preference lost")
	}
}
