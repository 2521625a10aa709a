package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bengkelpos/internal/domain"
	"bengkelpos/internal/service"
	"bengkelpos/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, nil, "storefront")
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, nil, "*")
}

func loginAs(t *testing.T, api *API, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, api *API, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")
	if token == "" {
		t.Fatal("expected non-empty access token")
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	payload, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestInventoryRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestInventoryListWithToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/inventory?location_id=storefront", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Records []domain.InventoryRecord `json:"records"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Records) == 0 {
		t.Fatal("expected seeded storefront records")
	}
	for _, r := range body.Records {
		if r.LocationID != "storefront" {
			t.Fatalf("expected only storefront records, got %s at %s", r.ID, r.LocationID)
		}
	}
}

func TestCreateInventoryForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/inventory", token, domain.InventoryCreateRequest{
		LocationID: "storefront",
		SKU:        "TOTE-01",
		Name:       "Tote Bag",
		PriceCents: 120000,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier create, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/checkout", token, domain.CheckoutRequest{
		LocationID:      "storefront",
		CustomerID:      "cust-1",
		PaymentMethod:   "cash",
		AmountPaidCents: 95000,
		TaxRate:         0,
		Lines: []domain.CartLine{
			{Kind: domain.CartLineSale, InventoryItemID: "itm-wallet-sf", Quantity: 1},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.CheckoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	if len(resp.Orders) != 1 {
		t.Fatalf("expected one order, got %d", len(resp.Orders))
	}
	if resp.Invoice.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected paid invoice, got %s", resp.Invoice.Status)
	}

	// Stock must have moved.
	recGet := doJSON(t, api, http.MethodGet, "/api/v1/inventory/itm-wallet-sf", token, nil)
	var body struct {
		Record domain.InventoryRecord `json:"record"`
	}
	if err := json.NewDecoder(recGet.Body).Decode(&body); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if body.Record.Stock != 11 {
		t.Fatalf("expected stock 11 after sale, got %d", body.Record.Stock)
	}
}

func TestCheckoutInsufficientStockReturns409(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/checkout", token, domain.CheckoutRequest{
		LocationID: "storefront",
		Lines: []domain.CartLine{
			{Kind: domain.CartLineSale, InventoryItemID: "itm-wallet-sf", Quantity: 9999},
		},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutEmptyCartReturns400(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/checkout", token, domain.CheckoutRequest{
		LocationID: "storefront",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestTransferLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "admin", "admin123")

	rec := doJSON(t, api, http.MethodPost, "/api/v1/transfers", token, domain.TransferCreateRequest{
		FromLocationID: "workshop",
		ToLocationID:   "storefront",
		Items: []domain.TransferItem{
			{InventoryItemID: "itm-buckle-ws", Quantity: 2},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Transfer domain.TransferOrder `json:"transfer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode transfer: %v", err)
	}
	if created.Transfer.Status != domain.TransferStatusPending {
		t.Fatalf("expected pending transfer, got %s", created.Transfer.Status)
	}

	recDone := doJSON(t, api, http.MethodPost, "/api/v1/transfers/"+created.Transfer.ID+"/complete", token, nil)
	if recDone.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d (body: %s)", recDone.Code, recDone.Body.String())
	}

	// A second complete call on a terminal transfer is a state conflict.
	recAgain := doJSON(t, api, http.MethodPost, "/api/v1/transfers/"+created.Transfer.ID+"/complete", token, nil)
	if recAgain.Code != http.StatusConflict {
		t.Fatalf("double complete: expected 409, got %d", recAgain.Code)
	}
}

func TestUnknownInvoiceReturns404(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/invoices/inv-missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestAuditLogsAdminOnly(t *testing.T) {
	api := newTestAPI(t)

	cashierToken := loginAs(t, api, "cashier", "cashier123")
	rec := doJSON(t, api, http.MethodGet, "/api/v1/audit-logs", cashierToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}

	adminToken := loginAs(t, api, "admin", "admin123")
	recAdmin := doJSON(t, api, http.MethodGet, "/api/v1/audit-logs", adminToken, nil)
	if recAdmin.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (body: %s)", recAdmin.Code, recAdmin.Body.String())
	}
}
