package logic

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserLogic(t *testing.T) *UserLogic {
	t.Helper()
	db := newTestDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	jwtCfg := config.JWTConfig{
		Secret:          "test-secret",
		Issuer:          "cps-test",
		AccessTTLMin:    15,
		RefreshTTLHours: 24,
	}
	tokens := auth.NewTokenManager(jwtCfg)
	sessions := auth.NewSessionStore(rdb, jwtCfg.RefreshTTL())
	return NewUserLogic(db, tokens, sessions)
}

func TestRegisterAndLogin(t *testing.T) {
	logic := newUserLogic(t)
	ctx := context.Background()

	user, err := logic.Register(ctx, RegisterInput{
		Email:    "Backer@Test.com",
		Password: "password123",
		Name:     "测试用户",
	})
	require.NoError(t, err)
	// 邮箱统一小写存储
	assert.Equal(t, "backer@test.com", user.Email)
	assert.Equal(t, model.UserRoleBacker, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	// 登录时大小写不敏感
	loggedIn, pair, err := logic.Login(ctx, "backer@TEST.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	logic := newUserLogic(t)
	ctx := context.Background()

	input := RegisterInput{Email: "backer@test.com", Password: "password123", Name: "甲"}
	_, err := logic.Register(ctx, input)
	require.NoError(t, err)

	input.Name = "乙"
	_, err = logic.Register(ctx, input)
	require.Equal(t, KindConflict, KindOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	logic := newUserLogic(t)
	ctx := context.Background()

	_, err := logic.Register(ctx, RegisterInput{
		Email: "backer@test.com", Password: "password123", Name: "测试用户",
	})
	require.NoError(t, err)

	// 密码错误和用户不存在返回同样的提示，不泄露账号是否存在
	_, _, err = logic.Login(ctx, "backer@test.com", "wrong-password")
	require.Equal(t, KindValidation, KindOf(err))
	wrongPass := err.Error()

	_, _, err = logic.Login(ctx, "nobody@test.com", "password123")
	require.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, wrongPass, err.Error())
}

func TestRefreshRotatesSession(t *testing.T) {
	logic := newUserLogic(t)
	ctx := context.Background()

	_, err := logic.Register(ctx, RegisterInput{
		Email: "backer@test.com", Password: "password123", Name: "测试用户",
	})
	require.NoError(t, err)

	_, pair, err := logic.Login(ctx, "backer@test.com", "password123")
	require.NoError(t, err)

	refreshed, err := logic.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	// 旧刷新令牌轮换后立即作废
	_, err = logic.Refresh(ctx, pair.RefreshToken)
	require.Equal(t, KindValidation, KindOf(err))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	logic := newUserLogic(t)
	ctx := context.Background()

	_, err := logic.Register(ctx, RegisterInput{
		Email: "backer@test.com", Password: "password123", Name: "测试用户",
	})
	require.NoError(t, err)

	_, pair, err := logic.Login(ctx, "backer@test.com", "password123")
	require.NoError(t, err)

	require.NoError(t, logic.Logout(ctx, pair.RefreshToken))

	_, err = logic.Refresh(ctx, pair.RefreshToken)
	require.Equal(t, KindValidation, KindOf(err))
}
