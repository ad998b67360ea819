package superfrete

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"jianlou/config"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    serverURL,
		token:      "test-token",
		userAgent:  "jianlou-test",
	}
}

func TestCheckoutLabel_NegotiatesBodyShape(t *testing.T) {
	t.Parallel()

	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)

		// 只接受orders数组写法
		if _, ok := body["orders"]; ok {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unknown field"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.CheckoutLabel(context.Background(), "label-1"); err != nil {
		t.Fatalf("CheckoutLabel() error = %v", err)
	}
	if len(bodies) != 3 {
		t.Fatalf("请求次数 = %d, want 3", len(bodies))
	}
	if _, ok := bodies[0]["id"]; !ok {
		t.Errorf("第一种写法应为id字段, got %v", bodies[0])
	}
	if _, ok := bodies[2]["orders"]; !ok {
		t.Errorf("第三种写法应为orders字段, got %v", bodies[2])
	}
}

func TestCancelLabel_StopsAfterSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		// 第二种写法（id+motivo）成功
		if _, ok := body["motivo"]; ok {
			if _, ok := body["id"]; ok {
				w.Write([]byte(`{}`))
				return
			}
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad shape"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.CancelLabel(context.Background(), "label-1", "buyer_remorse"); err != nil {
		t.Fatalf("CancelLabel() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("成功后不应继续尝试剩余写法, calls = %d, want 2", calls)
	}
}

func TestCheckoutLabel_AbortsOnServerError(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CheckoutLabel(context.Background(), "label-1")
	if err == nil {
		t.Fatal("CheckoutLabel() error = nil, want error")
	}
	if IsValidationError(err) {
		t.Errorf("5xx不应被判定为校验错误: %v", err)
	}
	if calls != 1 {
		t.Errorf("非校验错误应立即中止, calls = %d, want 1", calls)
	}
}

func TestCheckoutLabel_SurfacesLastValidationError(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"rejected"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CheckoutLabel(context.Background(), "label-1")
	if err == nil {
		t.Fatal("CheckoutLabel() error = nil, want error")
	}
	if !IsValidationError(err) {
		t.Errorf("全部写法被拒时应返回最后一个校验错误: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestQuoteFreight_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":2,"name":"SEDEX","price":25.5,"delivery_time":2},
			{"id":0,"name":"indisponível","price":0,"delivery_time":0},
			{"id":1,"name":"PAC","price":18.9,"delivery_time":7}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	options, err := client.QuoteFreight(context.Background(), &QuoteRequest{
		FromPostalCode: "01001-000",
		ToPostalCode:   "20040-020",
		Package:        Package{Height: 2, Width: 11, Length: 16, Weight: 0.3},
	})
	if err != nil {
		t.Fatalf("QuoteFreight() error = %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("len(options) = %d, want 2（价格为0的占位项应被过滤）", len(options))
	}
	if options[0].ServiceID != 1 || options[1].ServiceID != 2 {
		t.Errorf("报价应按价格升序: %+v", options)
	}
}

func TestQuoteFreight_EmptyResultIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"PAC","price":0,"delivery_time":0}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.QuoteFreight(context.Background(), &QuoteRequest{}); err == nil {
		t.Fatal("无可用报价时应返回错误")
	}
}

func TestGetOrderInfo_NormalizesFields(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"released","tracking_code":"BR123456789","print":{"url":"https://tags.example/abc.pdf"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	info, err := client.GetOrderInfo(context.Background(), "label-1")
	if err != nil {
		t.Fatalf("GetOrderInfo() error = %v", err)
	}
	if info.ID != "label-1" {
		t.Errorf("ID = %q, want label-1", info.ID)
	}
	if info.Tracking != "BR123456789" {
		t.Errorf("Tracking = %q, 应归一化tracking_code字段", info.Tracking)
	}
	if info.PrintURL != "https://tags.example/abc.pdf" {
		t.Errorf("PrintURL = %q, 应归一化print.url字段", info.PrintURL)
	}
	if info.Raw == "" {
		t.Error("Raw不应为空")
	}
}

func TestGetPrintableURL_FallsBackToOrderInfo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tag/print" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"released","print_url":"https://tags.example/fallback.pdf"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	url, err := client.GetPrintableURL(context.Background(), "label-1")
	if err != nil {
		t.Fatalf("GetPrintableURL() error = %v", err)
	}
	if url != "https://tags.example/fallback.pdf" {
		t.Errorf("url = %q, 应回退到状态查询里的链接", url)
	}
}

func TestNewClient_UsesConfig(t *testing.T) {
	t.Parallel()

	client := NewClient(config.SuperFreteConfig{
		BaseURL:   "https://sandbox.superfrete.com/api/v0",
		Token:     "tok",
		UserAgent: "ua",
	})
	if client.baseURL != "https://sandbox.superfrete.com/api/v0" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}
