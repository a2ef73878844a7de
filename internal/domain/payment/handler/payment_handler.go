package handler

import (
	"errors"
	"net/http"
	orderModel "seafood_shop/internal/domain/order/model"
	"seafood_shop/internal/domain/payment/model"
	"seafood_shop/internal/domain/payment/service"
	"seafood_shop/internal/domain/payment/strategy"
	userModel "seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// CheckoutInput 发起支付，channel 缺省为 momo
type CheckoutInput struct {
	Channel         string            `json:"channel" binding:"omitempty,oneof=momo alipay wechat"`
	Items           []orderModel.Item `json:"items" binding:"required,min=1"`
	TotalAmount     *decimal.Decimal  `json:"totalAmount"`
	ShippingAddress string            `json:"shippingAddress"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerAddress string            `json:"customerAddress"`
	Subject         string            `json:"subject"`
}

func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrPaymentFailed, "Transaction not found")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnsupportedChannel):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, strategy.ErrSignature), errors.Is(err, strategy.ErrInvalidNotification):
		response.Error(c, http.StatusBadRequest, response.ErrPaymentSignature, "Invalid payment notification")
	case errors.Is(err, service.ErrPaymentFailed), errors.Is(err, service.ErrAmountMismatch):
		response.Error(c, http.StatusBadRequest, response.ErrPaymentFailed, err.Error())
	case errors.Is(err, strategy.ErrGateway):
		response.Error(c, http.StatusBadGateway, response.ErrPaymentFailed, err.Error())
	default:
		response.ServerError(c, "Payment processing failed", err)
	}
}

// Checkout 创建待支付交易并返回网关支付参数
// @Summary 发起支付
// @Tags Payment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body CheckoutInput true "Order payload"
// @Success 200 {object} response.Response{data=service.CheckoutResult}
// @Router /payment/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if input.Channel == "" {
		input.Channel = model.ChannelMoMo
	}
	if middleware.CurrentRole(c) == userModel.RoleCustomer {
		input.CustomerPhone = ""
	}

	result, err := h.service.Checkout(c.Request.Context(), middleware.CurrentUserID(c), service.CheckoutInput{
		Channel:         input.Channel,
		Items:           input.Items,
		TotalAmount:     input.TotalAmount,
		ShippingAddress: input.ShippingAddress,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		Subject:         input.Subject,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, result)
}

// MoMoNotify MoMo IPN 回调
// @Summary MoMo 回调
// @Tags Payment
// @Accept json
// @Router /payment/notify/momo [post]
func (h *PaymentHandler) MoMoNotify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	result, err := h.service.HandleNotify(c.Request.Context(), model.ChannelMoMo, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, result)
}

// AlipayNotify 支付宝回调
// @Summary 支付宝回调
// @Tags Payment
// @Router /payment/notify/alipay [post]
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	// 支付宝回调是 POST Form 格式
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, "fail")
		return
	}
	_, err := h.service.HandleNotify(c.Request.Context(), model.ChannelAlipay, c.Request.Form)
	// 交易关闭也是合法通知，应答 success 停止重试
	if err != nil && !errors.Is(err, service.ErrPaymentFailed) {
		c.String(http.StatusOK, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付回调
// @Summary 微信支付回调
// @Tags Payment
// @Router /payment/notify/wechat [post]
func (h *PaymentHandler) WechatNotify(c *gin.Context) {
	// 签名信息在 Header 中，直接传递 *http.Request
	_, err := h.service.HandleNotify(c.Request.Context(), model.ChannelWechat, c.Request)
	if err != nil && !errors.Is(err, service.ErrPaymentFailed) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "FAIL", "message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Status 查询交易状态，仅限交易所有者或管理员
// @Summary 交易状态
// @Tags Payment
// @Security BearerAuth
// @Param orderNo path string true "Payment order number"
// @Success 200 {object} response.Response{data=service.StatusResult}
// @Router /payment/status/{orderNo} [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	result, err := h.service.Status(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !middleware.IsOwnerOrAdmin(c, result.Transaction.UserID) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return
	}
	response.Success(c, result)
}

// Channels 已启用的支付渠道
// @Summary 支付渠道
// @Tags Payment
// @Success 200 {object} response.Response
// @Router /payment/channels [get]
func (h *PaymentHandler) Channels(c *gin.Context) {
	response.Success(c, gin.H{"channels": h.service.Channels()})
}
