package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fieldops/backend/config"
	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
	"fieldops/backend/pkg/jwt"
	"fieldops/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrTenantNotFound     = errors.New("租户不存在")
	ErrOldPasswordWrong   = errors.New("原密码不正确")
	ErrTokenRevoked       = errors.New("token 已失效")
	ErrNotRefreshToken    = errors.New("不是 refresh token")
)

// AuthService 认证与账号业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	CreateStaff(ctx context.Context, tenantID string, req *dto.CreateStaffRequest, callerID string) (*dto.UserResponse, error)
	ListStaff(ctx context.Context, tenantID string) ([]dto.UserResponse, error)
	RemoveStaff(ctx context.Context, tenantID, userID, callerID string) error
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	GetTenant(ctx context.Context, tenantID string) (*dto.TenantResponse, error)
	RotateFeedToken(ctx context.Context, tenantID string) (*dto.TenantResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	// 1. 邮箱全局唯一
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	// 3. 同一事务创建租户 + 所有者账号
	tenant := &model.Tenant{
		TenantID: uuid.New().String(),
		Name:     req.BusinessName,
		Email:    req.Email,
		Phone:    req.Phone,
		Timezone: timezone,
	}
	tenant.FeedToken = uuid.New().String()

	owner := &model.User{
		UserID:       uuid.New().String(),
		TenantID:     tenant.TenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleOwner,
	}

	if err := s.repo.Tenant.CreateWithOwner(ctx, tenant, owner); err != nil {
		s.logger.Error("创建租户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("新租户注册",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("business", tenant.Name))

	return s.issueTokens(owner, false)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.AuthResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, ErrNotRefreshToken
	}

	blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("查询 token 黑名单失败", zap.Error(err))
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenRevoked
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 旋转：旧 refresh token 立即拉黑
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
			s.logger.Warn("拉黑旧 refresh token 失败", zap.Error(err))
		}
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		// 已过期或无效的 token 视为登出成功
		return nil
	}

	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
			s.logger.Error("拉黑 token 失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.UpdatedBy = &userID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 员工管理 ──────────────────────

func (s *authService) CreateStaff(ctx context.Context, tenantID string, req *dto.CreateStaffRequest, callerID string) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		UserID:       uuid.New().String(),
		TenantID:     tenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleStaff,
	}
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}

	return s.toUserResponse(user), nil
}

func (s *authService) ListStaff(ctx context.Context, tenantID string) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx, tenantID)
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *s.toUserResponse(&users[i]))
	}
	return result, nil
}

func (s *authService) RemoveStaff(ctx context.Context, tenantID, userID, callerID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if user.TenantID != tenantID {
		return ErrUserNotFound
	}
	if user.Role == model.RoleOwner {
		return ErrOwnerImmutable
	}

	if err := s.repo.User.Delete(ctx, tenantID, userID, callerID); err != nil {
		s.logger.Error("删除员工失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ErrOwnerImmutable 所有者账号不可被移除
var ErrOwnerImmutable = errors.New("所有者账号不可移除")

// ────────────────────── 账号与租户信息 ──────────────────────

func (s *authService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	return s.toUserResponse(user), nil
}

func (s *authService) GetTenant(ctx context.Context, tenantID string) (*dto.TenantResponse, error) {
	tenant, err := s.repo.Tenant.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		s.logger.Error("查询租户失败", zap.Error(err))
		return nil, err
	}
	return s.toTenantResponse(tenant), nil
}

func (s *authService) RotateFeedToken(ctx context.Context, tenantID string) (*dto.TenantResponse, error) {
	tenant, err := s.repo.Tenant.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		s.logger.Error("查询租户失败", zap.Error(err))
		return nil, err
	}

	tenant.FeedToken = uuid.New().String()
	if err := s.repo.Tenant.Update(ctx, tenant); err != nil {
		s.logger.Error("更新租户失败", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	return s.toTenantResponse(tenant), nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.TenantID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.TenantID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         s.toUserResponse(user),
	}, nil
}

func (s *authService) toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.UserID,
		TenantID:  user.TenantID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *authService) toTenantResponse(tenant *model.Tenant) *dto.TenantResponse {
	return &dto.TenantResponse{
		ID:        tenant.TenantID,
		Name:      tenant.Name,
		Email:     tenant.Email,
		Phone:     tenant.Phone,
		Timezone:  tenant.Timezone,
		FeedToken: tenant.FeedToken,
		CreatedAt: tenant.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/auth_service.go
