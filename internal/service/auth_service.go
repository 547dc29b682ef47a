package service

import (
	"context"
	"course_market_backend/internal/config"
	"course_market_backend/internal/model"
	"course_market_backend/internal/repository"
	"course_market_backend/internal/util"
	"course_market_backend/pkg/logger"
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterRequest 自助注册只能选择学员或创作者
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required"`
	Role     model.UserRole `json:"role"`
}

func (r *RegisterRequest) Validate() error {
	verr := util.NewValidationError()
	if len(strings.TrimSpace(r.Name)) < 2 {
		verr.Add("name", "must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if !IsStrongPassword(r.Password) {
		verr.Add("password", "must contain at least 8 characters, 1 uppercase, 1 lowercase, and 1 number")
	}
	switch r.Role {
	case "", model.Learner, model.Creator:
	default:
		verr.Add("role", "must be LEARNER or CREATOR")
	}
	return verr.OrNil()
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// swagger:model LoginResponse
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.StorageError("find user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.Learner
	}
	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, util.StorageError("create user", err)
	}

	logger.Log.Info("User registered", zap.Uint("userId", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, util.StorageError("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, util.ErrUserBlocked
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: user}, nil
}

// Profile 当前登录用户
func (s *AuthService) Profile(ctx context.Context, caller *Caller) (*model.User, error) {
	if caller == nil {
		return nil, util.ErrUnauthorized
	}
	user, err := s.UserRepo.FindByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, util.StorageError("find user", err)
	}
	return user, nil
}

// IsStrongPassword 至少 8 位，包含大小写字母和数字
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// EnsureAdmin 创建管理员账号，邮箱已存在时提升为管理员并重置密码。
// 仅供运维脚本使用，注册接口不能创建管理员。
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	verr := util.NewValidationError()
	if len(strings.TrimSpace(name)) < 2 {
		verr.Add("name", "must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if !IsStrongPassword(password) {
		verr.Add("password", "must contain at least 8 characters, 1 uppercase, 1 lowercase, and 1 number")
	}
	if err := verr.OrNil(); err != nil {
		return nil, false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.UserRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = model.Admin
		user.Password = string(hashedPassword)
		user.IsBlocked = false
		if err := s.UserRepo.Save(ctx, user); err != nil {
			return nil, false, util.StorageError("promote admin", err)
		}
		logger.Log.Info("Admin account updated", zap.Uint("userId", user.ID))
		return user, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.User{
			Name:     strings.TrimSpace(name),
			Email:    email,
			Password: string(hashedPassword),
			Role:     model.Admin,
		}
		if err := s.UserRepo.Create(ctx, user); err != nil {
			return nil, false, util.StorageError("create admin", err)
		}
		logger.Log.Info("Admin account created", zap.Uint("userId", user.ID))
		return user, true, nil
	default:
		return nil, false, util.StorageError("find user", err)
	}
}
