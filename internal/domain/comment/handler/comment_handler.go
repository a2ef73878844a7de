package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/comment/model"
	"seafood_shop/internal/domain/comment/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service service.CommentService
}

func NewCommentHandler(s service.CommentService) *CommentHandler {
	return &CommentHandler{service: s}
}

// CommentInput 发表评论，userId 仅管理员可指定
type CommentInput struct {
	UserID    string   `json:"userId"`
	ProductID string   `json:"productId" binding:"required"`
	Content   string   `json:"content" binding:"required"`
	Rating    int      `json:"rating" binding:"required,min=1,max=5"`
	Images    []string `json:"images"`
}

type UpdateCommentInput struct {
	Content *string  `json:"content"`
	Rating  *int     `json:"rating" binding:"omitempty,min=1,max=5"`
	Images  []string `json:"images"`
}

// ReplyInput 回复输入
type ReplyInput struct {
	Content string `json:"content" binding:"required"`
}

func (h *CommentHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCommentNotFound, "Comment not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
	case errors.Is(err, service.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, response.ErrProductNotFound, "Product not found")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "Comment operation failed", err)
	}
}

func writePage(c *gin.Context, page *pagination.Page[model.Comment]) {
	response.Success(c, response.Page("comments", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// owned 校验评论归属，失败时已写响应
func (h *CommentHandler) owned(c *gin.Context) bool {
	comment, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return false
	}
	if !middleware.IsOwnerOrAdmin(c, comment.UserID) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return false
	}
	return true
}

// List 评论列表
// @Summary 评论列表
// @Tags Comment
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 检索评论
// @Summary 检索评论
// @Tags Comment
// @Security BearerAuth
// @Param content query string false "Content substring"
// @Param userId query string false "User"
// @Param productId query string false "Product"
// @Param minRating query int false "Min rating"
// @Param maxRating query int false "Max rating"
// @Param startDate query string false "RFC3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} response.Response
// @Router /comments/search [get]
func (h *CommentHandler) Search(c *gin.Context) {
	q := utils.NewQueryParser(c)
	params := service.SearchParams{
		Content:   c.Query("content"),
		UserID:    c.Query("userId"),
		ProductID: c.Query("productId"),
		MinRating: q.Int("minRating"),
		MaxRating: q.Int("maxRating"),
		StartDate: q.Time("startDate"),
		EndDate:   q.Time("endDate"),
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

// ByProduct 商品的一级评论
func (h *CommentHandler) ByProduct(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.ByProduct(c.Request.Context(), c.Param("productId"), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, comment)
}

func (h *CommentHandler) WithReplies(c *gin.Context) {
	comment, err := h.service.WithReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, comment)
}

// Create 发表评论
// @Summary 发表评论
// @Tags Comment
// @Security BearerAuth
// @Param input body CommentInput true "Comment"
// @Success 201 {object} response.Response
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	userID := middleware.CurrentUserID(c)
	if input.UserID != "" && middleware.IsAdmin(c) {
		userID = input.UserID
	}

	comment, err := h.service.Create(c.Request.Context(), service.CreateInput{
		UserID:    userID,
		ProductID: input.ProductID,
		Content:   input.Content,
		Rating:    input.Rating,
		Images:    input.Images,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var input UpdateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if !h.owned(c) {
		return
	}
	comment, err := h.service.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{
		Content: input.Content,
		Rating:  input.Rating,
		Images:  input.Images,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if !h.owned(c) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Comment deleted"})
}

// Reply 管理员回复
// @Summary 回复评论
// @Tags Comment
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Param input body ReplyInput true "Reply"
// @Success 201 {object} response.Response
// @Router /comments/{id}/reply [post]
func (h *CommentHandler) Reply(c *gin.Context) {
	var input ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	reply, err := h.service.Reply(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), input.Content)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Reply added", "replyId": reply.ID})
}
