package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/dir"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/interpreter"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/routing"
	"github.com/opensource-finance/kestrel/internal/surcharge"
)

// createTestServer wires a full Community-tier stack against a temp
// SQLite database.
func createTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	tmpFile, err := os.CreateTemp("", "kestrel-api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	lru := cache.NewLRUCache(100)
	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	routingEngine := interpreter.NewEngine[routing.ConnectorSelection](routing.Config{})
	surchargeEngine := interpreter.NewEngine[surcharge.SurchargeDecisionConfigs](surcharge.SurchargeDecisionConfigs{})

	return NewServer(cfg, repo, lru, eventBus, routingEngine, surchargeEngine, "test-v1")
}

func mustEnumValue(t *testing.T, kind dir.DirKeyKind, member string) dir.DirValue {
	t.Helper()
	v, err := dir.NewEnumValue(kind, member)
	if err != nil {
		t.Fatalf("NewEnumValue(%s, %s): %v", kind, member, err)
	}
	return v
}

// cardRoutingProgram matches card payments to stripe, defaulting to
// adyen.
func cardRoutingProgram(t *testing.T) dir.Program[routing.ConnectorSelection] {
	t.Helper()
	return dir.Program[routing.ConnectorSelection]{
		DefaultSelection: routing.ConnectorSelection{
			Type:     routing.SelectionPriority,
			Priority: []routing.ConnectorChoice{{Connector: "adyen"}},
		},
		Rules: []dir.Rule[routing.ConnectorSelection]{
			{
				Name: "cards to stripe",
				ConnectorSelection: routing.ConnectorSelection{
					Type:     routing.SelectionPriority,
					Priority: []routing.ConnectorChoice{{Connector: "stripe"}},
				},
				Statements: []dir.IfStatement{
					{
						Condition: []dir.Comparison{
							{
								Values: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
								Logic:  dir.PositiveDisjunction,
							},
						},
					},
				},
			},
		},
	}
}

func doJSON(t *testing.T, server *Server, method, path, merchantID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if merchantID != "" {
		req.Header.Set("X-Merchant-ID", merchantID)
	}

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestRoutingEndpoints(t *testing.T) {
	server := createTestServer(t)
	merchantID := "merchant-001"

	var algorithmID string

	t.Run("CreateAlgorithm", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/algorithms", merchantID, CreateRoutingRequest{
			Name:      "card routing",
			Algorithm: cardRoutingProgram(t),
		})

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		var created domain.AlgorithmRecord
		if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if created.ID == "" {
			t.Error("expected generated algorithm ID")
		}
		if created.Kind != domain.AlgorithmRouting {
			t.Errorf("expected kind routing, got %s", created.Kind)
		}
		algorithmID = created.ID
	})

	t.Run("CreateRejectsMissingName", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/algorithms", merchantID, CreateRoutingRequest{
			Algorithm: cardRoutingProgram(t),
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("CreateRejectsConnectorCondition", func(t *testing.T) {
		program := cardRoutingProgram(t)
		program.Rules[0].Statements[0].Condition[0].Values = []dir.DirValue{
			mustEnumValue(t, dir.KeyConnector, "stripe"),
		}

		rr := doJSON(t, server, http.MethodPost, "/routing/algorithms", merchantID, CreateRoutingRequest{
			Name:      "conditions on connector",
			Algorithm: program,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for connector condition, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("ListAlgorithms", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodGet, "/routing/algorithms", merchantID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 algorithm, got %d", resp.Count)
		}
	})

	t.Run("GetAlgorithm", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodGet, "/routing/algorithms/"+algorithmID, merchantID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("GetAlgorithmNotFound", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodGet, "/routing/algorithms/nonexistent", merchantID, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("MerchantIsolation", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodGet, "/routing/algorithms/"+algorithmID, "merchant-002", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404 for other merchant, got %d", rr.Code)
		}
	})

	t.Run("ActivateAlgorithm", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/algorithms/"+algorithmID+"/activate", merchantID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("EvaluateMatchesRule", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/evaluate", merchantID, EvaluateRequest{
			Facts: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp RoutingDecisionResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !resp.Matched {
			t.Error("expected a rule match")
		}
		if resp.RuleName != "cards to stripe" {
			t.Errorf("expected rule 'cards to stripe', got %q", resp.RuleName)
		}
		if len(resp.Selection.Priority) != 1 || resp.Selection.Priority[0].Connector != "stripe" {
			t.Errorf("unexpected selection: %+v", resp.Selection)
		}
	})

	t.Run("EvaluateFallsBackToDefault", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/evaluate", merchantID, EvaluateRequest{
			Facts: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "wallet")},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp RoutingDecisionResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Matched {
			t.Error("expected default fallback, not a match")
		}
		if len(resp.Selection.Priority) != 1 || resp.Selection.Priority[0].Connector != "adyen" {
			t.Errorf("unexpected default selection: %+v", resp.Selection)
		}
	})

	t.Run("EvaluateNoActiveAlgorithm", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/evaluate", "merchant-empty", EvaluateRequest{
			Facts: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
		})
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("MissingMerchantID", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/routing/evaluate", "", EvaluateRequest{})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestSurchargeEndpoints(t *testing.T) {
	server := createTestServer(t)
	merchantID := "merchant-001"

	surchargeProgram := func() dir.Program[surcharge.SurchargeDecisionConfigs] {
		return dir.Program[surcharge.SurchargeDecisionConfigs]{
			DefaultSelection: surcharge.SurchargeDecisionConfigs{},
			Rules: []dir.Rule[surcharge.SurchargeDecisionConfigs]{
				{
					Name: "card surcharge",
					ConnectorSelection: surcharge.SurchargeDecisionConfigs{
						SurchargeDetails: &surcharge.SurchargeDetailsOutput{
							Surcharge: surcharge.SurchargeOutput{
								Type: surcharge.OutputRate,
								Rate: surcharge.Percentage{Percentage: 2.5},
							},
						},
					},
					Statements: []dir.IfStatement{
						{
							Condition: []dir.Comparison{
								{
									Values: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
									Logic:  dir.PositiveDisjunction,
								},
							},
						},
					},
				},
			},
		}
	}

	var configID string

	t.Run("CreateConfig", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/surcharge/configs", merchantID, surcharge.SurchargeDecisionManagerReq{
			Name:      "card surcharge config",
			Algorithm: surchargeProgram(),
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		var created domain.AlgorithmRecord
		json.Unmarshal(rr.Body.Bytes(), &created)
		if created.Kind != domain.AlgorithmSurcharge {
			t.Errorf("expected kind surcharge, got %s", created.Kind)
		}
		configID = created.ID
	})

	t.Run("CreateRejectsDisallowedKey", func(t *testing.T) {
		program := surchargeProgram()
		program.Rules[0].Statements[0].Condition[0].Values = []dir.DirValue{
			mustEnumValue(t, dir.KeyAuthenticationType, "three_ds"),
		}

		rr := doJSON(t, server, http.MethodPost, "/surcharge/configs", merchantID, surcharge.SurchargeDecisionManagerReq{
			Name:      "conditions on auth type",
			Algorithm: program,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for disallowed key, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("ActivateAndEvaluate", func(t *testing.T) {
		rr := doJSON(t, server, http.MethodPost, "/surcharge/configs/"+configID+"/activate", merchantID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("activation failed: %d: %s", rr.Code, rr.Body.String())
		}

		rr = doJSON(t, server, http.MethodPost, "/surcharge/evaluate", merchantID, EvaluateRequest{
			Facts: []dir.DirValue{mustEnumValue(t, dir.KeyPaymentMethod, "card")},
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp SurchargeDecisionResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !resp.Matched {
			t.Error("expected a rule match")
		}
		if resp.Decision.SurchargeDetails == nil {
			t.Fatal("expected surcharge details in decision")
		}
		if resp.Decision.SurchargeDetails.Surcharge.Rate.Percentage != 2.5 {
			t.Errorf("unexpected surcharge rate: %+v", resp.Decision.SurchargeDetails.Surcharge)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("MerchantMiddlewareExtractsID", func(t *testing.T) {
		var capturedMerchantID string

		handler := MerchantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedMerchantID = GetMerchantID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Merchant-ID", "my-merchant-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedMerchantID != "my-merchant-123" {
			t.Errorf("expected merchant ID 'my-merchant-123', got '%s'", capturedMerchantID)
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}
