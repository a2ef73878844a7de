package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/category/model"
	"seafood_shop/internal/domain/category/service"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	service service.CategoryService
}

func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

func (in CategoryInput) toService() service.CategoryInput {
	return service.CategoryInput{Name: in.Name, Description: in.Description, ImageURL: in.ImageURL}
}

func (h *CategoryHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCategoryNotFound, "Category not found")
	case errors.Is(err, service.ErrNameExists):
		response.Error(c, http.StatusConflict, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "Category operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Category]) {
	response.Success(c, response.Page("categories", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// List 分类列表
// @Summary 分类列表
// @Tags Category
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *CategoryHandler) Search(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.Search(c.Request.Context(), c.Query("name"), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, category)
}

func (h *CategoryHandler) GetByName(c *gin.Context) {
	category, err := h.service.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, category)
}

// Create 新建分类
// @Summary 新建分类
// @Tags Category
// @Security BearerAuth
// @Param input body CategoryInput true "Category"
// @Success 201 {object} response.Response
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	category, err := h.service.Create(c.Request.Context(), input.toService())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	category, err := h.service.Update(c.Request.Context(), c.Param("id"), input.toService())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Category deleted"})
}
