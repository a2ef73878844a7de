package uploader

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"path"
	"seafood_shop/internal/pkg/config"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

var ErrEmptyFileName = errors.New("file name is required")

// PresignedUpload 前端直传所需的预签名地址与最终访问地址
type PresignedUpload struct {
	PresignedURL string `json:"presignedUrl"`
	Path         string `json:"path"`
}

type Uploader interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error)
	PresignPut(fileName, contentType string) (*PresignedUpload, error)
}

// bucket 抽取 oss.Bucket 用到的方法，便于测试替换
type bucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	SignURL(objectKey string, method oss.HTTPMethod, expiredInSec int64, options ...oss.Option) (string, error)
}

type AliyunOSSUploader struct {
	bucket bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader(cfg config.OSSConfig) (*AliyunOSSUploader, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	b, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{bucket: b, config: cfg}, nil
}

func (u *AliyunOSSUploader) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key, err := objectKey(file.Filename)
	if err != nil {
		return "", err
	}

	opts := []oss.Option{oss.WithContext(ctx)}
	if ct := file.Header.Get("Content-Type"); ct != "" {
		opts = append(opts, oss.ContentType(ct))
	}
	if err := u.bucket.PutObject(key, src, opts...); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return u.publicURL(key), nil
}

// PresignPut 生成 PUT 预签名地址，客户端上传时的 Content-Type 必须与签名一致
func (u *AliyunOSSUploader) PresignPut(fileName, contentType string) (*PresignedUpload, error) {
	key, err := objectKey(fileName)
	if err != nil {
		return nil, err
	}

	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	signed, err := u.bucket.SignURL(key, oss.HTTPPut, u.config.PresignExpire, opts...)
	if err != nil {
		return nil, fmt.Errorf("sign url %s: %w", key, err)
	}

	return &PresignedUpload{PresignedURL: signed, Path: u.publicURL(key)}, nil
}

func (u *AliyunOSSUploader) publicURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key)
}

const keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// objectKey 10 位随机前缀加原文件名，去掉目录部分和空白
func objectKey(fileName string) (string, error) {
	name := strings.Join(strings.Fields(fileName), "")
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "", ErrEmptyFileName
	}

	prefix, err := randomString(10)
	if err != nil {
		return "", err
	}
	return prefix + "-" + name, nil
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = keyAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
