package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"jianlou/config"
)

// 支付状态
const (
	PaymentStatusApproved  = "approved"
	PaymentStatusPending   = "pending"
	PaymentStatusInProcess = "in_process"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
)

// APIError 网关返回的非2xx响应，保留原始响应体供排查
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago error %d: %s", e.StatusCode, e.Body)
}

// Client MercadoPago支付网关客户端
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient 创建支付网关客户端
func NewClient(cfg config.MercadoPagoConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
	}
}

// PreferenceItem 支付偏好中的商品行
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// BackURLs 支付完成后的跳转地址
type BackURLs struct {
	Success string `json:"success"`
	Pending string `json:"pending"`
	Failure string `json:"failure"`
}

// PreferenceRequest 创建支付偏好的请求
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	BackURLs          BackURLs         `json:"back_urls"`
}

// Preference 支付偏好
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment 支付记录
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// Refund 退款记录
type Refund struct {
	ID        int64   `json:"id"`
	PaymentID int64   `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// CreatePreference 创建支付偏好，返回偏好ID与收银台链接
func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	var pref Preference
	if err := c.doRequest(ctx, http.MethodPost, "/checkout/preferences", req, nil, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetPayment 查询单笔支付
func (c *Client) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	var payment Payment
	path := fmt.Sprintf("/v1/payments/%d", paymentID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SearchPaymentsByPreference 根据偏好ID检索关联的支付记录
func (c *Client) SearchPaymentsByPreference(ctx context.Context, preferenceID string) ([]Payment, error) {
	var result struct {
		Results []Payment `json:"results"`
	}
	path := "/v1/payments/search?" + url.Values{"preference_id": {preferenceID}}.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// RefundPayment 对支付发起全额退款，幂等键防止重复退款
func (c *Client) RefundPayment(ctx context.Context, paymentID int64, idempotencyKey string) (*Refund, error) {
	var refund Refund
	path := fmt.Sprintf("/v1/payments/%d/refunds", paymentID)
	headers := map[string]string{"X-Idempotency-Key": idempotencyKey}
	if err := c.doRequest(ctx, http.MethodPost, path, struct{}{}, headers, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// doRequest 发送请求并解析响应，非2xx状态返回APIError
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}, headers map[string]string, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求支付网关失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}
	return nil
}
