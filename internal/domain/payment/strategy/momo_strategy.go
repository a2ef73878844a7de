package strategy

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"seafood_shop/internal/pkg/config"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	momoCreatePath = "/v2/gateway/api/create"
	momoQueryPath  = "/v2/gateway/api/query"
)

// MoMoStrategy MoMo 钱包，请求与回调均以 HMAC-SHA256 签名
type MoMoStrategy struct {
	cfg    config.MoMoConfig
	client *http.Client
}

func NewMoMoStrategy(cfg config.MoMoConfig) (*MoMoStrategy, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.PartnerCode == "" {
		return nil, ErrNotConfigured
	}
	return &MoMoStrategy{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// WithHTTPClient 替换底层 HTTP 客户端
func (s *MoMoStrategy) WithHTTPClient(c *http.Client) *MoMoStrategy {
	s.client = c
	return s
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	Lang        string `json:"lang"`
	RequestType string `json:"requestType"`
	AutoCapture bool   `json:"autoCapture"`
	ExtraData   string `json:"extraData"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	QRCodeURL    string `json:"qrCodeUrl"`
}

// momoIPN 即时支付通知，查询接口的响应字段是它的子集
type momoIPN struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

type momoQueryRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

// rawSignature 按给定顺序拼接 key=value
func rawSignature(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(pairs[i+1])
	}
	return b.String()
}

func (s *MoMoStrategy) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *MoMoStrategy) createSignature(r momoCreateRequest) string {
	return s.sign(rawSignature(
		"accessKey", s.cfg.AccessKey,
		"amount", strconv.FormatInt(r.Amount, 10),
		"extraData", r.ExtraData,
		"ipnUrl", r.IpnURL,
		"orderId", r.OrderID,
		"orderInfo", r.OrderInfo,
		"partnerCode", r.PartnerCode,
		"redirectUrl", r.RedirectURL,
		"requestId", r.RequestID,
		"requestType", r.RequestType,
	))
}

func (s *MoMoStrategy) ipnSignature(n momoIPN) string {
	return s.sign(rawSignature(
		"accessKey", s.cfg.AccessKey,
		"amount", strconv.FormatInt(n.Amount, 10),
		"extraData", n.ExtraData,
		"message", n.Message,
		"orderId", n.OrderID,
		"orderInfo", n.OrderInfo,
		"orderType", n.OrderType,
		"partnerCode", n.PartnerCode,
		"payType", n.PayType,
		"requestId", n.RequestID,
		"responseTime", strconv.FormatInt(n.ResponseTime, 10),
		"resultCode", strconv.Itoa(n.ResultCode),
		"transId", strconv.FormatInt(n.TransID, 10),
	))
}

func (s *MoMoStrategy) querySignature(orderID, requestID string) string {
	return s.sign(rawSignature(
		"accessKey", s.cfg.AccessKey,
		"orderId", orderID,
		"partnerCode", s.cfg.PartnerCode,
		"requestId", requestID,
	))
}

// Pay MoMo 只接受整数 VND
func (s *MoMoStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	if !req.Amount.IsInteger() || !req.Amount.IsPositive() {
		return nil, fmt.Errorf("momo amount must be a positive whole number, got %s", req.Amount)
	}

	body := momoCreateRequest{
		PartnerCode: s.cfg.PartnerCode,
		RequestID:   req.RequestID,
		Amount:      req.Amount.IntPart(),
		OrderID:     req.OrderNo,
		OrderInfo:   req.Subject,
		RedirectURL: s.cfg.RedirectURL,
		IpnURL:      s.cfg.IpnURL,
		Lang:        s.cfg.Lang,
		RequestType: s.cfg.RequestType,
		AutoCapture: true,
		ExtraData:   req.ExtraData,
	}
	body.Signature = s.createSignature(body)

	var resp momoCreateResponse
	if err := s.post(ctx, momoCreatePath, body, &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != 0 {
		return nil, fmt.Errorf("%w: momo %d %s", ErrGateway, resp.ResultCode, resp.Message)
	}
	return &PayResult{PayURL: resp.PayURL, Deeplink: resp.Deeplink, QRCodeURL: resp.QRCodeURL}, nil
}

// Notify params 为 IPN 原始请求体
func (s *MoMoStrategy) Notify(ctx context.Context, params interface{}) (*Notification, error) {
	raw, ok := params.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: expected raw body, got %T", ErrInvalidNotification, params)
	}

	var ipn momoIPN
	if err := json.Unmarshal(raw, &ipn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	if ipn.OrderID == "" || ipn.PartnerCode != s.cfg.PartnerCode {
		return nil, ErrInvalidNotification
	}
	if !hmac.Equal([]byte(s.ipnSignature(ipn)), []byte(ipn.Signature)) {
		return nil, ErrSignature
	}
	return ipn.notification(), nil
}

// Query 主动查询交易状态
func (s *MoMoStrategy) Query(ctx context.Context, orderNo, requestID string) (*Notification, error) {
	body := momoQueryRequest{
		PartnerCode: s.cfg.PartnerCode,
		RequestID:   requestID,
		OrderID:     orderNo,
		Lang:        s.cfg.Lang,
		Signature:   s.querySignature(orderNo, requestID),
	}

	var resp momoIPN
	if err := s.post(ctx, momoQueryPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.OrderID != orderNo {
		return nil, fmt.Errorf("%w: query answered for %q", ErrInvalidNotification, resp.OrderID)
	}
	return resp.notification(), nil
}

func (n momoIPN) notification() *Notification {
	var transID string
	if n.TransID != 0 {
		transID = strconv.FormatInt(n.TransID, 10)
	}
	return &Notification{
		OrderNo:    n.OrderID,
		TransID:    transID,
		Amount:     decimal.NewFromInt(n.Amount),
		Success:    n.ResultCode == 0,
		ResultCode: n.ResultCode,
		Message:    n.Message,
	}
}

func (s *MoMoStrategy) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.Endpoint, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("momo %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("momo %s: status %d: %w", path, resp.StatusCode, err)
	}
	return nil
}

var (
	_ PaymentStrategy = (*MoMoStrategy)(nil)
	_ StatusQuerier   = (*MoMoStrategy)(nil)
)
