package push

import (
	"context"
	"encoding/json"
	"errors"
	"seafood_shop/internal/pkg/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/push"
)

var ErrNotConfigured = errors.New("push config is missing")

type PushService interface {
	PushToAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error
}

type AliyunPushService struct {
	client *push.Client
	appKey int64
}

func NewAliyunPushService(cfg config.PushConfig) (*AliyunPushService, error) {
	if cfg.AccessKeyID == "" || cfg.AppKey == 0 {
		return nil, ErrNotConfigured
	}

	client, err := push.NewClientWithAccessKey(cfg.RegionID, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	return &AliyunPushService{client: client, appKey: cfg.AppKey}, nil
}

// PushToAccount 账号维度推送，账号即用户ID
func (s *AliyunPushService) PushToAccount(ctx context.Context, accountID, title, body string, extParameters map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	request, err := buildRequest(s.appKey, "ACCOUNT", accountID, title, body, extParameters)
	if err != nil {
		return err
	}
	_, err = s.client.Push(request)
	return err
}

func buildRequest(appKey int64, target, targetValue, title, body string, extParameters map[string]string) (*push.PushRequest, error) {
	request := push.CreatePushRequest()
	request.AppKey = requests.NewInteger(int(appKey))
	request.Target = target
	request.TargetValue = targetValue
	request.Title = title
	request.Body = body
	request.DeviceType = "ALL"  // iOS & Android
	request.PushType = "NOTICE" // 通知

	if len(extParameters) > 0 {
		extJSON, err := json.Marshal(extParameters)
		if err != nil {
			return nil, err
		}
		request.AndroidExtParameters = string(extJSON)
		request.IOSExtParameters = string(extJSON)
	}
	return request, nil
}

// NoopPushService 未配置推送时使用
type NoopPushService struct{}

func (NoopPushService) PushToAccount(context.Context, string, string, string, map[string]string) error {
	return nil
}

// Task 通过 worker 池异步推送
type Task struct {
	Service   PushService
	AccountID string
	Title     string
	Body      string
	Extra     map[string]string
}

func (t Task) Name() string { return "push" }

func (t Task) Execute(ctx context.Context) error {
	return t.Service.PushToAccount(ctx, t.AccountID, t.Title, t.Body, t.Extra)
}
