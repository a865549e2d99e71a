package logic

import (
	"context"
	"errors"
	"strings"

	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserLogic 用户与登录业务逻辑
type UserLogic struct {
	db       *gorm.DB
	tokens   *auth.TokenManager
	sessions *auth.SessionStore
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB, tokens *auth.TokenManager, sessions *auth.SessionStore) *UserLogic {
	return &UserLogic{db: db, tokens: tokens, sessions: sessions}
}

// RegisterInput 注册请求
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// Register 注册新用户
func (u *UserLogic) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := u.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, WrapError(KindInternal, err, "查询用户失败")
	}
	if count > 0 {
		return nil, NewError(KindConflict, "该邮箱已注册")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, WrapError(KindInternal, err, "密码加密失败")
	}

	user := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         model.UserRoleBacker,
	}
	if err := u.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, WrapError(KindInternal, err, "创建用户失败")
	}
	return &user, nil
}

// TokenPair 登录/刷新返回的令牌对
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login 校验凭据并签发令牌对
func (u *UserLogic) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	var user model.User
	err := u.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, NewError(KindValidation, "邮箱或密码错误")
	}
	if err != nil {
		return nil, nil, WrapError(KindInternal, err, "查询用户失败")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, NewError(KindValidation, "邮箱或密码错误")
	}

	pair, err := u.issueTokens(ctx, &user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Refresh 轮换刷新令牌并签发新的访问令牌
func (u *UserLogic) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, newToken, err := u.sessions.Rotate(ctx, refreshToken)
	if errors.Is(err, auth.ErrSessionNotFound) {
		return nil, NewError(KindValidation, "刷新令牌无效")
	}
	if err != nil {
		return nil, WrapError(KindInternal, err, "刷新会话失败")
	}

	var user model.User
	if err := u.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, WrapError(KindInternal, err, "查询用户失败")
	}

	access, err := u.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, WrapError(KindInternal, err, "签发访问令牌失败")
	}
	return &TokenPair{AccessToken: access, RefreshToken: newToken}, nil
}

// Logout 注销会话
func (u *UserLogic) Logout(ctx context.Context, refreshToken string) error {
	if err := u.sessions.Delete(ctx, refreshToken); err != nil {
		return WrapError(KindInternal, err, "注销会话失败")
	}
	return nil
}

// GetUser 查询用户
func (u *UserLogic) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "用户不存在")
		}
		return nil, WrapError(KindInternal, err, "查询用户失败")
	}
	return &user, nil
}

func (u *UserLogic) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := u.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, WrapError(KindInternal, err, "签发访问令牌失败")
	}
	refresh, err := u.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, WrapError(KindInternal, err, "创建会话失败")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
