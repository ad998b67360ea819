package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     serverURL,
		accessToken: "test-token",
	}
}

func TestCreatePreference(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}

		var req PreferenceRequest
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Errorf("请求体无法解析: %v", err)
		}
		if req.ExternalReference != "JL20260801120000ABCDEF" {
			t.Errorf("external_reference = %q", req.ExternalReference)
		}

		w.Write([]byte(`{"id":"pref-123","init_point":"https://mp.example/init"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	pref, err := client.CreatePreference(context.Background(), &PreferenceRequest{
		Items:             []PreferenceItem{{Title: "订单 JL20260801120000ABCDEF", Quantity: 1, UnitPrice: 150.00, CurrencyID: "BRL"}},
		ExternalReference: "JL20260801120000ABCDEF",
	})
	if err != nil {
		t.Fatalf("CreatePreference() error = %v", err)
	}
	if pref.ID != "pref-123" || pref.InitPoint != "https://mp.example/init" {
		t.Errorf("pref = %+v", pref)
	}
}

func TestRefundPayment_SendsIdempotencyKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/42/refunds" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Idempotency-Key"); got != "refund-JL001" {
			t.Errorf("X-Idempotency-Key = %q, want refund-JL001", got)
		}
		w.Write([]byte(`{"id":7,"payment_id":42,"status":"approved"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	refund, err := client.RefundPayment(context.Background(), 42, "refund-JL001")
	if err != nil {
		t.Fatalf("RefundPayment() error = %v", err)
	}
	if refund.PaymentID != 42 || refund.Status != "approved" {
		t.Errorf("refund = %+v", refund)
	}
}

func TestSearchPaymentsByPreference(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("preference_id"); got != "pref-123" {
			t.Errorf("preference_id = %q", got)
		}
		w.Write([]byte(`{"results":[{"id":42,"status":"approved","external_reference":"JL001"},{"id":43,"status":"rejected","external_reference":"JL001"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	payments, err := client.SearchPaymentsByPreference(context.Background(), "pref-123")
	if err != nil {
		t.Fatalf("SearchPaymentsByPreference() error = %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("len(payments) = %d, want 2", len(payments))
	}
	if payments[0].ID != 42 || payments[0].Status != PaymentStatusApproved {
		t.Errorf("payments[0] = %+v", payments[0])
	}
}

func TestGetPayment_APIErrorKeepsBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"payment not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetPayment(context.Background(), 99)
	if err == nil {
		t.Fatal("GetPayment() error = nil, want error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("错误类型应为*APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Body != `{"message":"payment not found"}` {
		t.Errorf("Body = %q, 应保留原始响应体", apiErr.Body)
	}
}
