package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// exposeErrors 为 false 时 500 响应不回显底层错误（生产环境）
var exposeErrors = true

// SetExposeErrors 由启动流程根据运行环境设置
func SetExposeErrors(expose bool) {
	exposeErrors = expose
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// ServerError 500 响应，非生产环境附带错误详情
func ServerError(c *gin.Context, msg string, err error) {
	var data interface{}
	if exposeErrors && err != nil {
		data = gin.H{"error": err.Error()}
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    ErrServerInternal,
		Message: msg,
		Data:    data,
	})
}

// Page 分页数据的统一形状: {<plural>, totalPages, currentPage, hasMore}
func Page(plural string, items interface{}, totalPages, currentPage int, hasMore bool) gin.H {
	return gin.H{
		plural:        items,
		"totalPages":  totalPages,
		"currentPage": currentPage,
		"hasMore":     hasMore,
	}
}
