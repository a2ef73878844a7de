package service

import (
	"context"
	"errors"
	"seafood_shop/internal/domain/user/model"
	"seafood_shop/internal/pkg/otp"
	"seafood_shop/pkg/security"
	"seafood_shop/pkg/utils"
)

func (s *userService) issue(user *model.User) (*LoginResult, error) {
	pair, err := utils.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Summary(), TokenPair: pair}, nil
}

// Login 邮箱密码登录；锁定账号与未激活账号拒绝
func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.IsLocked {
		return nil, ErrAccountLocked
	}
	if user.IsNewUser {
		return nil, ErrAccountInactive
	}
	if !security.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Refresh 用 refresh token 换取新的令牌对，角色以数据库为准
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ParseTyped(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.IsLocked {
		return nil, ErrAccountLocked
	}
	return utils.GenerateTokenPair(user.ID, user.Email, user.Role)
}

// FirstLogin 使用邮件中的临时令牌设置密码，令牌一次有效
func (s *userService) FirstLogin(ctx context.Context, email, token, password string) (*LoginResult, error) {
	userID, err := s.tokens.Consume(ctx, otp.PurposeLogin, token)
	if err != nil {
		if errors.Is(err, otp.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Email != email {
		return nil, ErrInvalidToken
	}
	if !user.IsNewUser {
		return nil, ErrAlreadyActivated
	}
	if user.IsLocked {
		return nil, ErrAccountLocked
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Password = hash
	user.IsNewUser = false
	user.PasswordChangeRequired = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ChangePassword 首次登录后的强制改密无需旧密码，其余情况需校验
func (s *userService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.PasswordChangeRequired && !security.CheckPassword(user.Password, currentPassword) {
		return ErrWrongPassword
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{
		"password":                 hash,
		"password_change_required": false,
		"is_new_user":              false,
	})
}

// ResendVerification 为未激活账号重新签发临时登录链接
func (s *userService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.IsNewUser {
		return ErrAlreadyActivated
	}
	return s.sendTempLogin(ctx, user)
}

// VerifyAccount 校验链接中的令牌是否有效，不消费令牌
func (s *userService) VerifyAccount(ctx context.Context, token string) (*model.Summary, error) {
	userID, err := s.tokens.Peek(ctx, otp.PurposeLogin, token)
	if err != nil {
		if errors.Is(err, otp.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsNewUser {
		return nil, ErrAlreadyActivated
	}
	summary := user.Summary()
	return &summary, nil
}
