package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestNAVFlow_CalculateSubmitApprove(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "GROWTH-I")

	// Step 1: Calculate a draft NAV of 9.5M over 1M shares
	body := `{
		"valuation_date": "2024-06-30",
		"line_items": [
			{"kind": "asset", "description": "Equity portfolio", "quantity": "1", "unit_price": "10000000"},
			{"kind": "liability", "description": "Accrued expenses", "quantity": "1", "unit_price": "500000"}
		],
		"total_shares_outstanding": "1000000"
	}`
	rec := app.request("POST", fmt.Sprintf("/api/v1/funds/%s/nav/calculate", fundID), body, "analyst-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	calc := parseJSON(t, rec)
	navID := calc["id"].(string)
	if calc["status"] != "draft" {
		t.Errorf("expected draft status, got %v", calc["status"])
	}
	if calc["net_asset_value"].(string) != "9500000" {
		t.Errorf("expected NAV 9500000, got %v", calc["net_asset_value"])
	}
	if calc["nav_per_share"].(string) != "9.5" {
		t.Errorf("expected 9.5 per share, got %v", calc["nav_per_share"])
	}

	// Step 2: The draft is not visible to pricing consumers
	rec = app.request("GET", fmt.Sprintf("/api/v1/funds/%s/nav/latest", fundID), "", "analyst-1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before approval, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 3: Submit for approval
	rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/submit", navID), "", "analyst-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["status"] != "pending_approval" {
		t.Error("expected pending_approval after submit")
	}

	// Step 4: Approve
	rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/approve", navID), "", "controller-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed: %d %s", rec.Code, rec.Body.String())
	}
	approved := parseJSON(t, rec)
	if approved["status"] != "approved" {
		t.Errorf("expected approved, got %v", approved["status"])
	}
	if approved["approved_by"] != "controller-1" {
		t.Errorf("expected approver recorded, got %v", approved["approved_by"])
	}

	// Step 5: Now visible as the latest NAV
	rec = app.request("GET", fmt.Sprintf("/api/v1/funds/%s/nav/latest", fundID), "", "analyst-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("latest failed: %d %s", rec.Code, rec.Body.String())
	}
	latest := parseJSON(t, rec)
	if latest["id"] != navID {
		t.Errorf("expected latest NAV %s, got %v", navID, latest["id"])
	}
}

func TestNAVFlow_ReapprovalSupersedes(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "GROWTH-II")

	calculate := func(unitPrice string) string {
		body := fmt.Sprintf(`{
			"valuation_date": "2024-06-30",
			"line_items": [{"kind": "asset", "description": "Portfolio", "quantity": "1", "unit_price": %q}],
			"total_shares_outstanding": "1000000"
		}`, unitPrice)
		rec := app.request("POST", fmt.Sprintf("/api/v1/funds/%s/nav/calculate", fundID), body, "analyst-1")
		if rec.Code != http.StatusCreated {
			t.Fatalf("calculate failed: %d %s", rec.Code, rec.Body.String())
		}
		return parseJSON(t, rec)["id"].(string)
	}
	approve := func(navID string) {
		rec := app.request("POST", fmt.Sprintf("/api/v1/nav/%s/submit", navID), "", "analyst-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
		}
		rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/approve", navID), "", "controller-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("approve failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	first := calculate("9000000")
	approve(first)
	second := calculate("9500000")
	approve(second)

	// The corrected version wins; the first is superseded
	rec := app.request("GET", fmt.Sprintf("/api/v1/funds/%s/nav/latest", fundID), "", "analyst-1")
	latest := parseJSON(t, rec)
	if latest["id"] != second {
		t.Errorf("expected latest NAV %s, got %v", second, latest["id"])
	}
	if latest["version"].(float64) != 2 {
		t.Errorf("expected version 2, got %v", latest["version"])
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/nav/%s", first), "", "analyst-1")
	if parseJSON(t, rec)["status"] != "superseded" {
		t.Error("expected first calculation superseded")
	}
}

func TestNAVFlow_RejectRequiresReason(t *testing.T) {
	app := setupApp(t)
	fundID := app.createFund(t, "GROWTH-III")

	body := `{
		"valuation_date": "2024-06-30",
		"line_items": [{"kind": "asset", "description": "Cash", "quantity": "1", "unit_price": "1000000"}],
		"total_shares_outstanding": "100000"
	}`
	rec := app.request("POST", fmt.Sprintf("/api/v1/funds/%s/nav/calculate", fundID), body, "analyst-1")
	navID := parseJSON(t, rec)["id"].(string)

	rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/reject", navID), `{}`, "controller-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", fmt.Sprintf("/api/v1/nav/%s/reject", navID), `{"reason":"stale prices"}`, "controller-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("reject failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["status"] != "rejected" {
		t.Error("expected rejected status")
	}
}

func TestNAVFlow_MissingActorHeader(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/funds", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without actor header, got %d", rec.Code)
	}
}
