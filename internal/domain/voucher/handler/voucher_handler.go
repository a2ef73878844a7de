package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/voucher/model"
	"seafood_shop/internal/domain/voucher/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type VoucherHandler struct {
	service service.VoucherService
}

func NewVoucherHandler(s service.VoucherService) *VoucherHandler {
	return &VoucherHandler{service: s}
}

// CreateVoucherInput 创建券
type CreateVoucherInput struct {
	Code          string             `json:"code" binding:"required"`
	DiscountType  model.DiscountType `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal   `json:"discountValue" binding:"required"`
	MinPurchase   decimal.Decimal    `json:"minPurchase"`
	MaxDiscount   *decimal.Decimal   `json:"maxDiscount" binding:"required"`
	StartDate     time.Time          `json:"startDate" binding:"required"`
	EndDate       time.Time          `json:"endDate" binding:"required"`
	UsageLimit    int                `json:"usageLimit" binding:"min=0"`
	PerUserLimit  *int               `json:"perUserLimit" binding:"omitempty,min=0"`
}

// UpdateVoucherInput 部分更新
type UpdateVoucherInput struct {
	Code          *string             `json:"code"`
	DiscountType  *model.DiscountType `json:"discountType" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal    `json:"discountValue"`
	MinPurchase   *decimal.Decimal    `json:"minPurchase"`
	MaxDiscount   *decimal.Decimal    `json:"maxDiscount"`
	StartDate     *time.Time          `json:"startDate"`
	EndDate       *time.Time          `json:"endDate"`
	UsageLimit    *int                `json:"usageLimit" binding:"omitempty,min=0"`
	PerUserLimit  *int                `json:"perUserLimit" binding:"omitempty,min=0"`
}

// AmountInput 预览/核销时的订单金额
// 金额用指针：validator 不校验非指针结构体上的 required
type AmountInput struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

func (h *VoucherHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrVoucherNotFound, "Voucher not found")
	case errors.Is(err, service.ErrCodeExists):
		response.Error(c, http.StatusConflict, response.ErrVoucherCodeExists, "Voucher code already exists")
	case errors.Is(err, service.ErrNotRedeemable), errors.Is(err, service.ErrBelowMinPurchase):
		response.Error(c, http.StatusBadRequest, response.ErrVoucherNotApplicable, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "Voucher operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Voucher]) {
	response.Success(c, response.Page("vouchers", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// List 按 code 排序分页
// @Summary 券列表
// @Tags Voucher
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /vouchers [get]
func (h *VoucherHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 分批检索
// @Summary 检索券
// @Tags Voucher
// @Param code query string false "Code substring"
// @Param discountType query string false "percentage|fixed"
// @Success 200 {object} response.Response
// @Router /vouchers/search [get]
func (h *VoucherHandler) Search(c *gin.Context) {
	q := utils.NewQueryParser(c)
	params := service.SearchParams{
		Code:             c.Query("code"),
		DiscountType:     model.DiscountType(c.Query("discountType")),
		MinDiscountValue: q.Decimal("minDiscountValue"),
		MaxDiscountValue: q.Decimal("maxDiscountValue"),
		MinPurchase:      q.Decimal("minPurchase"),
		MaxDiscount:      q.Decimal("maxDiscount"),
		StartDate:        q.Time("startDate"),
		EndDate:          q.Time("endDate"),
		MinUsageLimit:    q.Int("minUsageLimit"),
		MaxUsageCount:    q.Int("maxUsageCount"),
	}
	if err := q.Err(); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p := utils.PaginationFromQuery(c)
	page, err := h.service.Search(c.Request.Context(), params, p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *VoucherHandler) Get(c *gin.Context) {
	v, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, v)
}

func (h *VoucherHandler) GetByCode(c *gin.Context) {
	v, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, v)
}

// ListValid 当前可用的券
func (h *VoucherHandler) ListValid(c *gin.Context) {
	vouchers, err := h.service.ListValid(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"vouchers": vouchers})
}

// Create 创建券 (管理员)
// @Summary 创建券
// @Tags Voucher
// @Accept json
// @Produce json
// @Param input body CreateVoucherInput true "券信息"
// @Success 201 {object} model.Voucher
// @Router /vouchers [post]
func (h *VoucherHandler) Create(c *gin.Context) {
	var input CreateVoucherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	v, err := h.service.Create(c.Request.Context(), service.VoucherInput{
		Code:          input.Code,
		DiscountType:  input.DiscountType,
		DiscountValue: *input.DiscountValue,
		MinPurchase:   input.MinPurchase,
		MaxDiscount:   *input.MaxDiscount,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		UsageLimit:    input.UsageLimit,
		PerUserLimit:  input.PerUserLimit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, v)
}

func (h *VoucherHandler) Update(c *gin.Context) {
	var input UpdateVoucherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	v, err := h.service.Update(c.Request.Context(), c.Param("id"), service.VoucherPatch{
		Code:          input.Code,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinPurchase:   input.MinPurchase,
		MaxDiscount:   input.MaxDiscount,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		UsageLimit:    input.UsageLimit,
		PerUserLimit:  input.PerUserLimit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, v)
}

func (h *VoucherHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, "Voucher deleted")
}

// Preview 计算当前用户可获得的折扣，不占用名额
func (h *VoucherHandler) Preview(c *gin.Context) {
	var input AmountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	q, err := h.service.Preview(c.Request.Context(), c.Param("code"), middleware.CurrentUserID(c), *input.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, q)
}

// Redeem 核销
// @Summary 使用券
// @Tags Voucher
// @Accept json
// @Produce json
// @Param code path string true "券码"
// @Param input body AmountInput true "订单金额"
// @Success 200 {object} response.Response
// @Router /vouchers/code/{code}/redeem [post]
func (h *VoucherHandler) Redeem(c *gin.Context) {
	var input AmountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	res, err := h.service.Redeem(c.Request.Context(), c.Param("code"), middleware.CurrentUserID(c), *input.Amount)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"voucher":    res.Voucher,
		"discount":   res.Discount,
		"finalTotal": input.Amount.Sub(res.Discount),
	})
}
