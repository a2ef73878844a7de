package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/order/model"
	"seafood_shop/internal/domain/order/service"
	userModel "seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orders service.OrderService
	stats  service.StatsService
}

func NewOrderHandler(orders service.OrderService, stats service.StatsService) *OrderHandler {
	return &OrderHandler{orders: orders, stats: stats}
}

// CreateOrderInput 下单请求
type CreateOrderInput struct {
	Items           []model.Item     `json:"items" binding:"required,min=1"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	Status          model.Status     `json:"status"`
	ShippingAddress string           `json:"shippingAddress"`
	PaymentMethod   string           `json:"paymentMethod"`
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerAddress string           `json:"customerAddress"`
	AmountGiven     *decimal.Decimal `json:"amountGiven"`
	VoucherCode     string           `json:"voucherCode"`
}

// UpdateOrderInput 部分更新
type UpdateOrderInput struct {
	Items           []model.Item     `json:"items"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	Status          *model.Status    `json:"status"`
	ShippingAddress *string          `json:"shippingAddress"`
	PaymentMethod   *string          `json:"paymentMethod"`
	CustomerName    *string          `json:"customerName"`
	CustomerPhone   *string          `json:"customerPhone"`
	CustomerAddress *string          `json:"customerAddress"`
	AmountGiven     *decimal.Decimal `json:"amountGiven"`
}

func (h *OrderHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, "Order not found")
	case errors.Is(err, service.ErrVoucherRejected):
		response.Error(c, http.StatusBadRequest, response.ErrVoucherNotApplicable, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrMissingProduct):
		response.ServerError(c, "Revenue calculation failed: order references a deleted product", err)
	default:
		response.ServerError(c, "Order operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Order]) {
	response.Success(c, response.Page("orders", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

func forbidden(c *gin.Context) {
	response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
}

// yearParam 缺省为当前年份
func yearParam(c *gin.Context) (int, bool) {
	year, err := utils.QueryInt(c, "year")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return 0, false
	}
	if year == nil {
		return time.Now().UTC().Year(), true
	}
	return *year, true
}

// List 全部订单
// @Summary 订单列表
// @Tags Order
// @Security BearerAuth
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.orders.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 按电话/用户、金额、日期、状态检索
// @Summary 检索订单
// @Tags Order
// @Security BearerAuth
// @Param query query string false "userId or phone substring"
// @Param minAmount query number false "Min amount"
// @Param maxAmount query number false "Max amount"
// @Param startDate query string false "RFC3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC3339 or YYYY-MM-DD"
// @Param status query string false "Status"
// @Success 200 {object} response.Response
// @Router /orders/search [get]
func (h *OrderHandler) Search(c *gin.Context) {
	q := utils.NewQueryParser(c)
	params := service.SearchParams{
		Query:     c.Query("query"),
		MinAmount: q.Decimal("minAmount"),
		MaxAmount: q.Decimal("maxAmount"),
		StartDate: q.Time("startDate"),
		EndDate:   q.Time("endDate"),
		Status:    model.Status(c.Query("status")),
	}
	if err := q.Err(); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p := utils.PaginationFromQuery(c)
	page, err := h.orders.Search(c.Request.Context(), params, p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *OrderHandler) ByUser(c *gin.Context) {
	userID := c.Param("userId")
	if !middleware.IsOwnerOrAdmin(c, userID) {
		forbidden(c)
		return
	}
	p := utils.PaginationFromQuery(c)
	page, err := h.orders.ByUser(c.Request.Context(), userID, p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Get 本人、管理员或员工可见
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !middleware.IsOwnerOrAdmin(c, o.UserID) && middleware.CurrentRole(c) != userModel.RoleStaff {
		forbidden(c)
		return
	}
	response.Success(c, o)
}

// Create 下单
// @Summary 创建订单
// @Tags Order
// @Security BearerAuth
// @Param input body CreateOrderInput true "Order"
// @Success 201 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	// 只有员工和管理员可以替顾客下单
	if input.CustomerPhone != "" && middleware.CurrentRole(c) == userModel.RoleCustomer {
		input.CustomerPhone = ""
	}

	o, err := h.orders.Create(c.Request.Context(), middleware.CurrentUserID(c), service.CreateInput{
		Items:           input.Items,
		TotalAmount:     input.TotalAmount,
		Status:          input.Status,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		AmountGiven:     input.AmountGiven,
		VoucherCode:     input.VoucherCode,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, o)
}

func (h *OrderHandler) Update(c *gin.Context) {
	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	o, err := h.orders.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{
		Items:           input.Items,
		TotalAmount:     input.TotalAmount,
		Status:          input.Status,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		AmountGiven:     input.AmountGiven,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, o)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Order deleted successfully"})
}

func (h *OrderHandler) ProductInOrders(c *gin.Context) {
	used, err := h.orders.ProductInOrders(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"inOrders": used})
}

// HasPurchased 评论前校验是否买过
func (h *OrderHandler) HasPurchased(c *gin.Context) {
	userID := c.Param("userId")
	if !middleware.IsOwnerOrAdmin(c, userID) {
		forbidden(c)
		return
	}
	bought, err := h.orders.HasPurchased(c.Request.Context(), userID, c.Param("productId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"hasPurchased": bought})
}

// Revenue 已完成订单营收，利润只返回给管理员
// @Summary 营收统计
// @Tags Order
// @Security BearerAuth
// @Param startDate query string false "RFC3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /orders/revenue [get]
func (h *OrderHandler) Revenue(c *gin.Context) {
	q := utils.NewQueryParser(c)
	from, to := q.Time("startDate"), q.Time("endDate")
	if err := q.Err(); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	report, err := h.stats.Revenue(c.Request.Context(), from, to, middleware.IsAdmin(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, report)
}

func (h *OrderHandler) RevenueByMonth(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	months, err := h.stats.RevenueByMonth(c.Request.Context(), year)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, months)
}

func (h *OrderHandler) RevenueComparison(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	cmp, err := h.stats.RevenueComparison(c.Request.Context(), year)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, cmp)
}

func (h *OrderHandler) StatusStats(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	counts, err := h.stats.StatusStats(c.Request.Context(), year)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, counts)
}

func (h *OrderHandler) TopProducts(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	top, err := h.stats.TopProducts(c.Request.Context(), year)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, top)
}
