// Package routing defines the connector routing use case: the selection
// payload routing rules produce and the allowlist their programs must
// stay within.
package routing

import (
	"encoding/json"
	"fmt"

	"github.com/opensource-finance/kestrel/internal/dir"
)

// ConnectorChoice names a processor a payment can be routed to,
// optionally pinned to a specific merchant connector account.
type ConnectorChoice struct {
	Connector           string `json:"connector"`
	MerchantConnectorID string `json:"merchant_connector_id,omitempty"`
}

// ConnectorVolumeSplit assigns a percentage of traffic to a connector.
type ConnectorVolumeSplit struct {
	Connector ConnectorChoice `json:"connector"`
	Split     int             `json:"split"`
}

// Connector selection variants.
const (
	SelectionPriority    = "priority"
	SelectionVolumeSplit = "volume_split"
)

// ConnectorSelection is the payload a routing rule selects: either an
// ordered priority list or a volume split. Serialized in the tagged
// {"type", "data"} form.
type ConnectorSelection struct {
	Type        string
	Priority    []ConnectorChoice
	VolumeSplit []ConnectorVolumeSplit
}

func (s ConnectorSelection) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case SelectionPriority:
		return json.Marshal(struct {
			Type string            `json:"type"`
			Data []ConnectorChoice `json:"data"`
		}{SelectionPriority, s.Priority})
	case SelectionVolumeSplit:
		return json.Marshal(struct {
			Type string                 `json:"type"`
			Data []ConnectorVolumeSplit `json:"data"`
		}{SelectionVolumeSplit, s.VolumeSplit})
	}
	return nil, fmt.Errorf("unknown connector selection type %q", s.Type)
}

func (s *ConnectorSelection) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	switch tagged.Type {
	case SelectionPriority:
		var choices []ConnectorChoice
		if err := json.Unmarshal(tagged.Data, &choices); err != nil {
			return err
		}
		*s = ConnectorSelection{Type: SelectionPriority, Priority: choices}
	case SelectionVolumeSplit:
		var splits []ConnectorVolumeSplit
		if err := json.Unmarshal(tagged.Data, &splits); err != nil {
			return err
		}
		total := 0
		for _, split := range splits {
			total += split.Split
		}
		if len(splits) > 0 && total != 100 {
			return fmt.Errorf("volume split percentages sum to %d, want 100", total)
		}
		*s = ConnectorSelection{Type: SelectionVolumeSplit, VolumeSplit: splits}
	default:
		return fmt.Errorf("unknown connector selection type %q", tagged.Type)
	}
	return nil
}

// Config is the routing use case's filter declaration.
type Config struct{}

// AllowedKeys permits every key kind except the connector key: routing
// programs select connectors, they do not condition on them, and
// lowering would reject the reference anyway.
func (Config) AllowedKeys() []dir.DirKeyKind {
	keys := make([]dir.DirKeyKind, 0, len(dir.AllKeys())-1)
	for _, k := range dir.AllKeys() {
		if k == dir.KeyConnector {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Record is the stored form of a named routing program.
type Record struct {
	Name        string                          `json:"name"`
	Description string                          `json:"description,omitempty"`
	Algorithm   dir.Program[ConnectorSelection] `json:"algorithm"`
	CreatedAt   int64                           `json:"created_at"`
	ModifiedAt  int64                           `json:"modified_at"`
}
