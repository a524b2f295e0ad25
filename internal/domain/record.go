package domain

import (
	"encoding/json"
	"time"
)

// AlgorithmKind distinguishes the decision domains a stored rule
// program can belong to.
type AlgorithmKind string

const (
	// AlgorithmRouting selects a connector for a payment.
	AlgorithmRouting AlgorithmKind = "routing"

	// AlgorithmSurcharge selects a surcharge decision for a payment.
	AlgorithmSurcharge AlgorithmKind = "surcharge"
)

// IsValid reports whether the kind is a known decision domain.
func (k AlgorithmKind) IsValid() bool {
	return k == AlgorithmRouting || k == AlgorithmSurcharge
}

// AlgorithmRecord is the persistence envelope for a named rule program.
// Document holds the use-case record (routing.Record or the surcharge
// decision manager record) as JSON; the envelope stays kind-agnostic so
// one repository serves both decision domains.
type AlgorithmRecord struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchantId"`
	Kind        AlgorithmKind   `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Document    json.RawMessage `json:"document"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	ModifiedAt  time.Time       `json:"modifiedAt"`
}
