package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learning_path_backend/internal/config"
	"learning_path_backend/internal/model"
	"learning_path_backend/internal/repository"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	denylistPrefix    = "jwt:denylist:"
	verifyTokenPrefix = "email:verify:"
	verifyTokenTTL    = 24 * time.Hour
)

// RegisterRequest 注册表单
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthService struct {
	Users *repository.UserRepository
	Redis *redis.Client
	JWT   config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, rdb *redis.Client, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{Users: users, Redis: rdb, JWT: jwtCfg}
}

// Register 创建新用户并直接签发令牌，注册即登录
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	if len(req.Password) < 6 {
		return nil, "", &util.ValidationError{Field: "password", Message: "密码长度不能少于6位"}
	}
	if req.Password != req.ConfirmPassword {
		return nil, "", &util.ValidationError{Field: "confirmPassword", Message: "两次输入的密码不一致"}
	}

	if _, err := s.Users.FindByEmail(req.Email); err == nil {
		return nil, "", util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", &util.PersistenceError{Op: "check email", Err: err}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.Users.Create(user); err != nil {
		return nil, "", &util.PersistenceError{Op: "create user", Err: err}
	}

	token, err := util.GenerateJWT(user, s.JWT.Secret, s.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	if err := s.SendVerificationEmail(ctx, user); err != nil {
		logger.Log.Warn("Failed to send verification email", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return user, token, nil
}

func (s *AuthService) Login(req LoginRequest) (*model.User, string, error) {
	user, err := s.Users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", util.ErrInvalidCredentials
		}
		return nil, "", &util.PersistenceError{Op: "load user", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.JWT.Secret, s.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	if err := s.Users.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return user, token, nil
}

// Logout 把令牌的 jti 放入黑名单，有效期与令牌剩余寿命一致
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, denylistPrefix+claims.ID, "1", remaining).Err()
}

// IsRevoked 令牌是否已被登出
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := s.Redis.Get(ctx, denylistPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SendVerificationEmail 生成 24 小时有效的验证令牌。未接入邮件网关，
// 验证链接记录在日志中。
func (s *AuthService) SendVerificationEmail(ctx context.Context, user *model.User) error {
	token := uuid.New().String()
	if err := s.Redis.Set(ctx, verifyTokenPrefix+token, user.ID, verifyTokenTTL).Err(); err != nil {
		return err
	}
	logger.Log.Info("Email verification link issued",
		zap.Uint("user_id", user.ID),
		zap.String("link", fmt.Sprintf("/api/verify-email?token=%s", token)))
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.Redis.Get(ctx, verifyTokenPrefix+token).Uint64()
	if err == redis.Nil {
		return util.ErrVerifyTokenInvalid
	}
	if err != nil {
		return err
	}

	if err := s.Users.MarkEmailVerified(uint(userID)); err != nil {
		return &util.PersistenceError{Op: "mark email verified", Err: err}
	}
	s.Redis.Del(ctx, verifyTokenPrefix+token)
	return nil
}

func (s *AuthService) GetCurrentUser(userID uint) (*model.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, &util.PersistenceError{Op: "load user", Err: err}
	}
	return user, nil
}
