package superfrete

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"jianlou/config"
)

// 运单状态（承运商侧）
const (
	LabelStatusPending   = "pending"   // 已创建未支付
	LabelStatusReleased  = "released"  // 已支付可打印
	LabelStatusPosted    = "posted"    // 已交寄
	LabelStatusDelivered = "delivered" // 已签收
	LabelStatusCancelled = "canceled"  // 已取消
)

// APIError 网关返回的非2xx响应，保留原始响应体供排查
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("superfrete error %d: %s", e.StatusCode, e.Body)
}

// IsValidationError 判断错误是否为客户端参数校验类错误（400/422）
// 只有这一类错误允许继续尝试下一种请求体字段写法
func IsValidationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity
}

// Client SuperFrete物流网关客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// NewClient 创建物流网关客户端
func NewClient(cfg config.SuperFreteConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
	}
}

// Package 包裹尺寸与重量
type Package struct {
	Height float64 `json:"height"` // cm
	Width  float64 `json:"width"`  // cm
	Length float64 `json:"length"` // cm
	Weight float64 `json:"weight"` // kg
}

// QuoteRequest 运费询价请求
type QuoteRequest struct {
	FromPostalCode string  `json:"-"`
	ToPostalCode   string  `json:"-"`
	Package        Package `json:"package"`
	Services       string  `json:"services"` // 逗号分隔的服务ID，空则查询全部
}

// RateOption 一个可选的运费报价
type RateOption struct {
	ServiceID    int     `json:"id"`
	ServiceName  string  `json:"name"`
	Price        float64 `json:"price"`
	DeliveryDays int     `json:"delivery_time"`
}

// ShipmentRequest 创建运单请求
type ShipmentRequest struct {
	ServiceID int          `json:"service"`
	From      Address      `json:"from"`
	To        Address      `json:"to"`
	Package   Package      `json:"package"`
	Options   LabelOptions `json:"options"`
}

// Address 收寄件地址
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Street     string `json:"address"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state_abbr"`
	PostalCode string `json:"postal_code"`
}

// LabelOptions 运单附加选项
type LabelOptions struct {
	InsuranceValue float64 `json:"insurance_value"`
	Receipt        bool    `json:"receipt"`
	OwnHand        bool    `json:"own_hand"`
}

// OrderInfo 运单当前状态，已对异构字段做归一化
type OrderInfo struct {
	ID       string
	Status   string
	Tracking string
	PrintURL string
	Raw      string // 原始响应体，落库供人工排查
}

// QuoteFreight 运费询价，结果按价格升序；没有任何报价视为错误而非空成功
func (c *Client) QuoteFreight(ctx context.Context, req *QuoteRequest) ([]RateOption, error) {
	payload := map[string]interface{}{
		"from":     map[string]string{"postal_code": req.FromPostalCode},
		"to":       map[string]string{"postal_code": req.ToPostalCode},
		"package":  req.Package,
		"services": req.Services,
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/calculator", payload)
	if err != nil {
		return nil, err
	}

	var options []RateOption
	if err := json.Unmarshal(body, &options); err != nil {
		return nil, fmt.Errorf("解析报价响应失败: %w", err)
	}

	// 过滤掉承运商返回的报错占位项（价格为0的条目）
	valid := options[:0]
	for _, opt := range options {
		if opt.Price > 0 {
			valid = append(valid, opt)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("承运商未返回任何可用报价")
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Price < valid[j].Price })
	return valid, nil
}

// CreateCartLabel 创建运单（加入购物车），返回运单ID
func (c *Client) CreateCartLabel(ctx context.Context, req *ShipmentRequest) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/cart", req)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("解析运单创建响应失败: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("承运商未返回运单ID: %s", string(body))
	}
	return result.ID, nil
}

// CheckoutLabel 支付运单
// 承运商不同部署环境接受的ID字段名不一致，按固定顺序逐一尝试；
// 仅参数校验类错误（400/422）才尝试下一种写法，其余错误立即中止
func (c *Client) CheckoutLabel(ctx context.Context, labelID string) error {
	shapes := []map[string]interface{}{
		{"id": labelID},
		{"order_id": labelID},
		{"orders": []string{labelID}},
	}
	return c.tryShapes(ctx, "/checkout", shapes)
}

// CancelLabel 取消运单，使用与支付相同的字段写法协商策略
func (c *Client) CancelLabel(ctx context.Context, labelID, reason string) error {
	shapes := []map[string]interface{}{
		{"id": labelID, "reason": reason},
		{"id": labelID, "motivo": reason},
		{"order": labelID, "reason": reason},
		{"order": labelID, "motivo": reason},
	}
	return c.tryShapes(ctx, "/order/cancel", shapes)
}

// GetOrderInfo 查询运单状态并归一化异构字段
func (c *Client) GetOrderInfo(ctx context.Context, labelID string) (*OrderInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/order/info/"+labelID, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		Tracking     string `json:"tracking"`
		TrackingCode string `json:"tracking_code"`
		PrintURL     string `json:"print_url"`
		Print        struct {
			URL string `json:"url"`
		} `json:"print"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("解析运单状态响应失败: %w", err)
	}

	info := &OrderInfo{
		ID:       raw.ID,
		Status:   raw.Status,
		Tracking: raw.Tracking,
		PrintURL: raw.PrintURL,
		Raw:      string(body),
	}
	if info.ID == "" {
		info.ID = labelID
	}
	if info.Tracking == "" {
		info.Tracking = raw.TrackingCode
	}
	if info.PrintURL == "" {
		info.PrintURL = raw.Print.URL
	}
	return info, nil
}

// GetPrintableURL 获取运单打印链接
// 已放行但未缓存打印链接时，主动发起批量打印请求，失败再回退到状态查询里的链接
func (c *Client) GetPrintableURL(ctx context.Context, labelID string) (string, error) {
	payload := map[string]interface{}{"orders": []string{labelID}}
	body, err := c.doRequest(ctx, http.MethodPost, "/tag/print", payload)
	if err == nil {
		var result struct {
			URL string `json:"url"`
		}
		if jsonErr := json.Unmarshal(body, &result); jsonErr == nil && result.URL != "" {
			return result.URL, nil
		}
	}

	// 回退到状态查询接口
	info, infoErr := c.GetOrderInfo(ctx, labelID)
	if infoErr != nil {
		if err != nil {
			return "", err
		}
		return "", infoErr
	}
	if info.PrintURL == "" {
		return "", fmt.Errorf("运单尚无可用打印链接")
	}
	return info.PrintURL, nil
}

// tryShapes 按固定顺序尝试多种请求体字段写法，第一个成功即返回
// 所有写法均被拒绝时返回最后一个校验错误，保证失败原因可追溯
func (c *Client) tryShapes(ctx context.Context, path string, shapes []map[string]interface{}) error {
	var lastErr error
	for _, shape := range shapes {
		_, err := c.doRequest(ctx, http.MethodPost, path, shape)
		if err == nil {
			return nil
		}
		if !IsValidationError(err) {
			// 5xx、超时等错误不是字段写法问题，立即中止以免掩盖真实故障
			return err
		}
		lastErr = err
	}
	return lastErr
}

// doRequest 发送请求并返回响应体，非2xx状态返回APIError
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求物流网关失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
