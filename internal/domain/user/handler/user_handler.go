package handler

import (
	"errors"
	"net/http"
	"seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/domain/user/service"
	"seafood_shop/internal/pkg/middleware"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/response"
	"seafood_shop/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// LoginInput 登录输入
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// FirstLoginInput 邮件链接中的临时令牌 + 新密码
type FirstLoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// CreateUserInput 管理员创建员工账号
type CreateUserInput struct {
	Email       string `json:"email" binding:"required,email"`
	FullName    string `json:"fullName" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Role        string `json:"role" binding:"omitempty,oneof=customer admin staff"`
}

type UpdateUserInput struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	FullName    *string `json:"fullName"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
	Avatar      *string `json:"avatar"`
	Role        *string `json:"role" binding:"omitempty,oneof=customer admin staff"`
}

type LockInput struct {
	IsLocked *bool `json:"isLocked" binding:"required"`
}

type RewardPointsInput struct {
	Points int `json:"points" binding:"required"`
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
	case errors.Is(err, service.ErrEmailExists):
		response.Error(c, http.StatusConflict, response.ErrUserExists, "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, "Invalid email or password")
	case errors.Is(err, service.ErrWrongPassword):
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, err.Error())
	case errors.Is(err, service.ErrAccountLocked):
		response.Error(c, http.StatusForbidden, response.ErrAccountLocked, "Account is locked")
	case errors.Is(err, service.ErrAccountInactive):
		response.Error(c, http.StatusForbidden, response.ErrAccountInactive, err.Error())
	case errors.Is(err, service.ErrAlreadyActivated), errors.Is(err, service.ErrInvalidInput), errors.Is(err, pagination.ErrInvalidPage):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		response.ServerError(c, "User operation failed", err)
	}
}

func badRequest(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
}

func writePage(c *gin.Context, page *pagination.Page[model.User]) {
	response.Success(c, response.Page("users", page.Items, page.TotalPages, page.CurrentPage, page.HasMore))
}

// Login 邮箱密码登录
// @Summary 登录
// @Tags User
// @Accept json
// @Param input body LoginInput true "Credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, res)
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Tags User
// @Param input body RefreshInput true "Refresh token"
// @Success 200 {object} response.Response
// @Router /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, pair)
}

// FirstLogin 员工首次登录设置密码
func (h *UserHandler) FirstLogin(c *gin.Context) {
	var input FirstLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.FirstLogin(c.Request.Context(), input.Email, input.Token, input.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, res)
}

// VerifyAccount 检查邮件链接是否仍然有效
func (h *UserHandler) VerifyAccount(c *gin.Context) {
	summary, err := h.service.VerifyAccount(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"valid": true, "email": summary.Email})
}

func (h *UserHandler) ResendVerification(c *gin.Context) {
	if err := h.service.ResendVerification(c.Request.Context(), c.Param("email")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Verification email sent"})
}

// ChangePassword 修改当前用户密码
// @Summary 修改密码
// @Tags User
// @Security BearerAuth
// @Param input body ChangePasswordInput true "Passwords"
// @Success 200 {object} response.Response
// @Router /users/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), input.CurrentPassword, input.NewPassword)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Password changed"})
}

// DeleteData 匿名化当前用户的个人信息
func (h *UserHandler) DeleteData(c *gin.Context) {
	if err := h.service.DeleteData(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Personal data deleted"})
}

// List 获取用户列表
// @Summary 用户列表
// @Tags User
// @Security BearerAuth
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.List(c.Request.Context(), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// Search 按邮箱、姓名或电话检索
func (h *UserHandler) Search(c *gin.Context) {
	p := utils.PaginationFromQuery(c)
	page, err := h.service.Search(c.Request.Context(), c.Query("query"), p.Page, p.PageSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writePage(c, page)
}

// CheckAdminPermission 前端用于确认管理员身份，路由本身已做校验
func (h *UserHandler) CheckAdminPermission(c *gin.Context) {
	response.Success(c, gin.H{"isAdmin": true})
}

// Get 获取单个用户，仅本人或管理员
func (h *UserHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !middleware.IsOwnerOrAdmin(c, id) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, user)
}

// Create 管理员创建员工账号，临时登录链接通过邮件发送
// @Summary 创建员工
// @Tags User
// @Security BearerAuth
// @Param input body CreateUserInput true "User"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.service.CreateStaff(c.Request.Context(), service.CreateStaffInput{
		Email:       input.Email,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
		Role:        input.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, user)
}

// Update 本人或管理员更新资料，仅管理员可改角色
func (h *UserHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !middleware.IsOwnerOrAdmin(c, id) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		return
	}

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, service.UpdateInput{
		Email:       input.Email,
		FullName:    input.FullName,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
		Avatar:      input.Avatar,
		Role:        input.Role,
	}, middleware.IsAdmin(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, user)
}

// Lock 锁定或解锁账号
func (h *UserHandler) Lock(c *gin.Context) {
	var input LockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	if id == middleware.CurrentUserID(c) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Cannot lock your own account")
		return
	}
	if err := h.service.SetLocked(c.Request.Context(), id, *input.IsLocked); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "isLocked": *input.IsLocked})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "User deleted"})
}

// AddRewardPoints 增减积分，points 可为负
func (h *UserHandler) AddRewardPoints(c *gin.Context) {
	var input RewardPointsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	total, err := h.service.AddRewardPoints(c.Request.Context(), c.Param("id"), input.Points)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, gin.H{"rewardPoints": total})
}
