package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"seafood_shop/internal/pkg/config"
	"seafood_shop/internal/pkg/uploader"
	"seafood_shop/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// 同时上传到 OSS 的文件数
const uploadConcurrency = 3

type UploadHandler struct {
	uploader uploader.Uploader
	cfg      config.OSSConfig
}

func NewUploadHandler(u uploader.Uploader, cfg config.OSSConfig) *UploadHandler {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 << 20
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}
	return &UploadHandler{uploader: u, cfg: cfg}
}

type PresignInput struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType"`
}

func (h *UploadHandler) ready(c *gin.Context) bool {
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrUploadFailed, "Object storage is not configured")
		return false
	}
	return true
}

func (h *UploadHandler) checkSize(f *multipart.FileHeader) error {
	if f.Size > h.cfg.MaxFileSize {
		return fmt.Errorf("%s exceeds %d bytes", f.Filename, h.cfg.MaxFileSize)
	}
	return nil
}

// PresignedURL 前端直传的 PUT 预签名地址
// @Summary 获取预签名上传地址
// @Tags Upload
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body PresignInput true "File info"
// @Success 200 {object} response.Response{data=uploader.PresignedUpload}
// @Router /uploads/presigned-url [post]
func (h *UploadHandler) PresignedURL(c *gin.Context) {
	var input PresignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if !h.ready(c) {
		return
	}

	res, err := h.uploader.PresignPut(input.FileName, input.ContentType)
	if err != nil {
		if errors.Is(err, uploader.ErrEmptyFileName) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
		response.ServerError(c, "Failed to create presigned url", err)
		return
	}
	response.Success(c, res)
}

// Image 上传单张图片，表单字段 image
// @Summary 上传图片
// @Tags Upload
// @Security BearerAuth
// @Accept multipart/form-data
// @Param image formData file true "Image"
// @Success 201 {object} response.Response
// @Router /uploads/image [post]
func (h *UploadHandler) Image(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No file uploaded")
		return
	}
	if err := h.checkSize(file); err != nil {
		response.Error(c, http.StatusRequestEntityTooLarge, response.ErrInvalidParam, err.Error())
		return
	}
	if !h.ready(c) {
		return
	}

	url, err := h.uploader.UploadFile(c.Request.Context(), file)
	if err != nil {
		response.ServerError(c, "Upload failed", err)
		return
	}
	response.Created(c, gin.H{"imageUrl": url})
}

// Images 批量上传，表单字段 images，结果与上传顺序一致
// @Summary 批量上传图片
// @Tags Upload
// @Security BearerAuth
// @Accept multipart/form-data
// @Param images formData file true "Images"
// @Success 201 {object} response.Response
// @Router /uploads/images [post]
func (h *UploadHandler) Images(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}
	if len(files) > h.cfg.MaxFiles {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, fmt.Sprintf("At most %d files per request", h.cfg.MaxFiles))
		return
	}
	for _, f := range files {
		if err := h.checkSize(f); err != nil {
			response.Error(c, http.StatusRequestEntityTooLarge, response.ErrInvalidParam, err.Error())
			return
		}
	}
	if !h.ready(c) {
		return
	}

	urls := make([]string, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(uploadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			url, err := h.uploader.UploadFile(ctx, file)
			if err != nil {
				return err
			}
			// 按索引赋值，保证顺序
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		response.ServerError(c, "Upload failed", err)
		return
	}

	response.Created(c, gin.H{"imageUrls": urls})
}
