package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestPerformanceFlow_InceptionMultiples(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "PERF-I")
	accountID := app.createAccount(t, fundID, "inv-1")

	// Paid-in capital of 1M, 200k distributed, residual NAV 900k
	body := `{"type":"subscription","amount":"1000000","shares":"100000","price_per_share":"10"}`
	rec := app.request("POST", fmt.Sprintf("/api/v1/accounts/%s/transactions", accountID), body, "ops-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscription failed: %d %s", rec.Code, rec.Body.String())
	}
	body = `{"type":"distribution","amount":"200000"}`
	rec = app.request("POST", fmt.Sprintf("/api/v1/accounts/%s/transactions", accountID), body, "ops-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("distribution failed: %d %s", rec.Code, rec.Body.String())
	}

	body = `{
		"valuation_date": "2024-06-30",
		"line_items": [{"kind": "asset", "description": "Portfolio", "quantity": "1", "unit_price": "900000"}],
		"total_shares_outstanding": "100000"
	}`
	rec = app.request("POST", fmt.Sprintf("/api/v1/funds/%s/nav/calculate", fundID), body, "analyst-1")
	navID := parseJSON(t, rec)["id"].(string)
	app.request("POST", fmt.Sprintf("/api/v1/nav/%s/submit", navID), "", "analyst-1")
	rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/approve", navID), "", "controller-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", rec.Code, rec.Body.String())
	}

	// Performance transactions settle today; use an as-of date beyond both
	rec = app.request("POST", fmt.Sprintf("/api/v1/funds/%s/performance/calculate", fundID),
		`{"period_type":"inception","as_of_date":"2030-12-31"}`, "analyst-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("calculate performance failed: %d %s", rec.Code, rec.Body.String())
	}
	metric := parseJSON(t, rec)
	if metric["dpi"].(string) != "0.2" {
		t.Errorf("expected DPI 0.2, got %v", metric["dpi"])
	}
	if metric["rvpi"].(string) != "0.9" {
		t.Errorf("expected RVPI 0.9, got %v", metric["rvpi"])
	}
	if metric["tvpi"].(string) != "1.1" {
		t.Errorf("expected TVPI 1.1, got %v", metric["tvpi"])
	}
	if metric["moic"].(string) != metric["tvpi"].(string) {
		t.Errorf("expected MOIC to equal TVPI, got %v and %v", metric["moic"], metric["tvpi"])
	}

	// History is queryable
	rec = app.request("GET", fmt.Sprintf("/api/v1/funds/%s/performance?period_type=inception", fundID), "", "analyst-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("history failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["total_items"].(float64) != 1 {
		t.Error("expected 1 recorded metric")
	}
}
