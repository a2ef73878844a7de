package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/product/model"
	"seafood_shop/internal/domain/product/service"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// ProductInput 创建/更新商品
// Price 用指针，否则 required 对 decimal 不生效
type ProductInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	CostPrice   decimal.Decimal  `json:"costPrice"`
	Quantity    int              `json:"quantity" binding:"min=0"`
	Images      []string         `json:"images"`
	CategoryID  string           `json:"categoryId" binding:"required"`
}

func (in ProductInput) toService() service.ProductInput {
	return service.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		CostPrice:   in.CostPrice,
		Quantity:    in.Quantity,
		Images:      in.Images,
		CategoryID:  in.CategoryID,
	}
}

func (h *ProductHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		response.Error(c, http.StatusBadRequest, response.ErrCategoryNotFound, "Category not found")
	case errors.Is(err, service.ErrInUse):
		response.Error(c, http.StatusBadRequest, response.ErrProductInUse, "Cannot delete product: it is referenced by existing orders")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "Product operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Product]) {
	response.Success(c, response.Page("products", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// List 商品列表
// @Summary 商品列表
// @Tags Product
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 名称检索忽略声调
// @Summary 检索商品
// @Tags Product
// @Param name query string false "Name"
// @Param minPrice query number false "Min price"
// @Param maxPrice query number false "Max price"
// @Success 200 {object} response.Response
// @Router /products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	q := utils.NewQueryParser(c)
	params := service.SearchParams{
		Name:       c.Query("name"),
		CategoryID: c.Query("categoryId"),
		MinPrice:   q.Decimal("minPrice"),
		MaxPrice:   q.Decimal("maxPrice"),
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

func (h *ProductHandler) ByCategory(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.ByCategory(c.Request.Context(), c.Param("categoryId"), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	product, err := h.service.Create(c.Request.Context(), input.toService())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	product, err := h.service.Update(c.Request.Context(), c.Param("id"), input.toService())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Product deleted"})
}
