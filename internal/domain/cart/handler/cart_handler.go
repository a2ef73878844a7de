package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/cart/model"
	"seafood_shop/internal/domain/cart/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

// CartInput 购物车行整体提交
type CartInput struct {
	Items []model.Item `json:"items" binding:"dive"`
}

func (h *CartHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCartNotFound, "Cart not found")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "Cart operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Cart]) {
	response.Success(c, response.Page("carts", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// owned 取出购物车并校验归属，失败时已写响应
func (h *CartHandler) owned(c *gin.Context) (*model.Cart, bool) {
	cart, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	if !middleware.IsOwnerOrAdmin(c, cart.UserID) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return nil, false
	}
	return cart, true
}

// List 购物车列表
// @Summary 购物车列表
// @Tags Cart
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /carts [get]
func (h *CartHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 按用户 id 检索
// @Summary 检索购物车
// @Tags Cart
// @Security BearerAuth
// @Param query query string false "userId substring"
// @Success 200 {object} response.Response
// @Router /carts/search [get]
func (h *CartHandler) Search(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.Search(c.Request.Context(), c.Query("query"), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *CartHandler) Get(c *gin.Context) {
	cart, ok := h.owned(c)
	if !ok {
		return
	}
	response.Success(c, cart)
}

// Create 归属当前用户
func (h *CartHandler) Create(c *gin.Context) {
	var input CartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	cart, err := h.service.Create(c.Request.Context(), middleware.CurrentUserID(c), input.Items)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Cart created", "cartId": cart.ID})
}

func (h *CartHandler) Update(c *gin.Context) {
	var input CartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if _, ok := h.owned(c); !ok {
		return
	}
	cart, err := h.service.Update(c.Request.Context(), c.Param("id"), input.Items)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, cart)
}

func (h *CartHandler) Delete(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Cart deleted"})
}

func (h *CartHandler) ByUser(c *gin.Context) {
	userID := c.Param("userId")
	if !middleware.IsOwnerOrAdmin(c, userID) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return
	}
	carts, err := h.service.ByUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, carts)
}
