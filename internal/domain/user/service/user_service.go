package service

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/domain/user/repository"
	"seafood_shop/internal/pkg/mailer"
	"seafood_shop/internal/pkg/otp"
	"seafood_shop/internal/pkg/worker"
	"seafood_shop/pkg/cache"
	"seafood_shop/pkg/logger"
	"seafood_shop/pkg/pagination"
	"seafood_shop/pkg/search"
	"seafood_shop/pkg/utils"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrEmailExists        = repository.ErrEmailExists
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked")
	ErrAccountInactive    = errors.New("account not activated, use the link sent by email")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyActivated   = errors.New("account already activated")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidInput       = errors.New("invalid user input")
)

// TaskQueue 异步任务入队
type TaskQueue interface {
	AddTask(task worker.Task) bool
}

// Options 用户服务的可配置项
type Options struct {
	TempLoginTTL     time.Duration
	LockCacheTTL     time.Duration
	FrontendURL      string
	DefaultAvatarURL string
}

// CreateStaffInput 管理员创建账号
type CreateStaffInput struct {
	Email       string
	FullName    string
	PhoneNumber string
	Address     string
	Role        string
}

// UpdateInput 资料更新，nil 字段不修改
type UpdateInput struct {
	Email       *string
	FullName    *string
	PhoneNumber *string
	Address     *string
	Avatar      *string
	Role        *string // 仅管理员可改
}

// LoginResult 登录成功返回
type LoginResult struct {
	User model.Summary `json:"user"`
	*utils.TokenPair
}

// UserService 用户服务接口
type UserService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	FirstLogin(ctx context.Context, email, token, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
	VerifyAccount(ctx context.Context, token string) (*model.Summary, error)

	List(ctx context.Context, page, pageSize int) (*pagination.Page[model.User], error)
	Search(ctx context.Context, query string, page, pageSize int) (*pagination.Page[model.User], error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	CreateStaff(ctx context.Context, in CreateStaffInput) (*model.User, error)
	Update(ctx context.Context, id string, in UpdateInput, byAdmin bool) (*model.User, error)
	SetLocked(ctx context.Context, id string, locked bool) error
	IsLocked(ctx context.Context, id string) (bool, error)
	AddRewardPoints(ctx context.Context, id string, points int) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteData(ctx context.Context, id string) error

	Exists(ctx context.Context, id string) (bool, error)
	FindOrCreateByPhone(ctx context.Context, phone, fullName, address string) (string, error)
}

// userService 实现
type userService struct {
	repo   repository.UserRepository
	tokens otp.TokenStore
	cache  cache.CacheService
	tasks  TaskQueue
	mail   mailer.Mailer
	opts   Options
	log    *zap.Logger
}

// NewUserService 创建用户服务，mail 为 nil 时只记录日志不发信
func NewUserService(repo repository.UserRepository, tokens otp.TokenStore, c cache.CacheService, tasks TaskQueue, mail mailer.Mailer, opts Options) UserService {
	return &userService{
		repo:   repo,
		tokens: tokens,
		cache:  c,
		tasks:  tasks,
		mail:   mail,
		opts:   opts,
		log:    logger.Named("user"),
	}
}

func (s *userService) List(ctx context.Context, page, pageSize int) (*pagination.Page[model.User], error) {
	return pagination.Paginate(ctx, s.repo.ByEmail(), page, pageSize)
}

// Search email / 姓名 / 电话 任一包含关键字
func (s *userService) Search(ctx context.Context, query string, page, pageSize int) (*pagination.Page[model.User], error) {
	strategy := search.FullScan[model.User]{Load: s.repo.All}
	return strategy.Search(ctx, func(u model.User) bool {
		return search.ContainsFold(u.Email, query) ||
			search.ContainsFold(u.FullName, query) ||
			search.ContainsFold(u.PhoneNumber, query)
	}, page, pageSize)
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Avatar == "" {
		user.Avatar = s.opts.DefaultAvatarURL
	}
	return user, nil
}

func (s *userService) CreateStaff(ctx context.Context, in CreateStaffInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleStaff
	}
	if !model.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:                  in.Email,
		FullName:               in.FullName,
		PhoneNumber:            in.PhoneNumber,
		Address:                in.Address,
		Role:                   in.Role,
		IsNewUser:              true,
		PasswordChangeRequired: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 邮件失败不回滚账号，管理员可重发
	s.sendTempLogin(ctx, user)
	return user, nil
}

func (s *userService) sendTempLogin(ctx context.Context, user *model.User) error {
	token, err := s.tokens.Issue(ctx, otp.PurposeLogin, user.ID, s.opts.TempLoginTTL)
	if err != nil {
		s.log.Error("issue temp login token failed", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	s.enqueueMail(mailer.TempLoginMessage(user.Email, user.FullName, s.opts.FrontendURL, token))
	return nil
}

func (s *userService) enqueueMail(msg mailer.Message) {
	if s.mail == nil || s.tasks == nil {
		s.log.Warn("mailer not configured, email skipped", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return
	}
	if !s.tasks.AddTask(mailer.Task{Mailer: s.mail, Message: msg}) {
		s.log.Error("enqueue mail failed", zap.String("to", msg.To))
	}
}

func (s *userService) Update(ctx context.Context, id string, in UpdateInput, byAdmin bool) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, *in.Email); err == nil {
			return nil, ErrEmailExists
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		user.Email = *in.Email
	}
	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Role != nil {
		if !byAdmin {
			return nil, fmt.Errorf("%w: role can only be changed by an admin", ErrInvalidInput)
		}
		if !model.ValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
		}
		user.Role = *in.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func lockKey(id string) string {
	return "user:locked:" + id
}

func (s *userService) SetLocked(ctx context.Context, id string, locked bool) error {
	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{"is_locked": locked}); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, lockKey(id)); err != nil {
		s.log.Warn("invalidate lock cache failed", zap.String("user_id", id), zap.Error(err))
	}
	return nil
}

// IsLocked 供认证中间件调用，结果短暂缓存；已删除的账号视为锁定
func (s *userService) IsLocked(ctx context.Context, id string) (bool, error) {
	var locked bool
	if err := s.cache.Get(ctx, lockKey(id), &locked); err == nil {
		return locked, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		locked = true
	case err != nil:
		return false, err
	default:
		locked = user.IsLocked
	}

	if err := s.cache.Set(ctx, lockKey(id), locked, s.opts.LockCacheTTL); err != nil {
		s.log.Warn("cache lock status failed", zap.String("user_id", id), zap.Error(err))
	}
	return locked, nil
}

func (s *userService) AddRewardPoints(ctx context.Context, id string, points int) (int, error) {
	return s.repo.AddRewardPoints(ctx, id, points)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, lockKey(id))
	return nil
}

// DeleteData 用户自助删除个人数据
func (s *userService) DeleteData(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	user.Anonymize()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info("user data deleted", zap.String("user_id", id))
	return nil
}

func (s *userService) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// FindOrCreateByPhone 门店下单时按电话匹配顾客，不存在则建档
func (s *userService) FindOrCreateByPhone(ctx context.Context, phone, fullName, address string) (string, error) {
	user, err := s.repo.GetByPhone(ctx, phone)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	user = &model.User{
		FullName:    fullName,
		PhoneNumber: phone,
		Address:     address,
		Role:        model.RoleCustomer,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}
