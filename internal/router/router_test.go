package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/database"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/paypal"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// stubProvider 固定返回成功结果的支付渠道
type stubProvider struct {
	orderSeq int
	amounts  map[string]float64
}

func (s *stubProvider) CreateOrder(_ context.Context, pledgeID uint, amount float64, currency, description string) (*paypal.Order, error) {
	s.orderSeq++
	id := fmt.Sprintf("ORDER-%d", s.orderSeq)
	s.amounts[id] = amount
	return &paypal.Order{
		ID:     id,
		Status: "CREATED",
		Links:  []paypal.Link{{Href: "https://paypal.test/approve/" + id, Rel: "approve"}},
	}, nil
}

func (s *stubProvider) CaptureOrder(_ context.Context, orderID string) (*paypal.CaptureResult, error) {
	return &paypal.CaptureResult{
		OrderID:   orderID,
		CaptureID: "CAP-" + orderID,
		Status:    "COMPLETED",
		Amount:    s.amounts[orderID],
		Currency:  "USD",
	}, nil
}

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			Issuer:          "cps-test",
			AccessTTLMin:    15,
			RefreshTTLHours: 24,
		},
		Payment: config.PaymentConfig{
			AmountTolerance:    0.01,
			PendingTTLMin:      30,
			PlatformFeeRate:    0.05,
			ProcessingFeeRate:  0.029,
			ProcessingFeeFixed: 0.3,
		},
	}

	tokens := auth.NewTokenManager(cfg.JWT)
	sessions := auth.NewSessionStore(rdb, cfg.JWT.RefreshTTL())
	provider := &stubProvider{amounts: map[string]float64{}}

	return &testEnv{
		engine: Setup(db, provider, tokens, sessions, nil, cfg),
		db:     db,
	}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// register 注册并登录，返回访问令牌
func (e *testEnv) register(t *testing.T, email string) (uint, string) {
	t.Helper()
	w, _ := e.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
		"name":     email,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := e.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return uint(user["id"].(float64)), data["accessToken"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w, resp := env.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.request(t, http.MethodGet, "/api/v1/pledges/history", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, resp["success"])

	w, _ = env.request(t, http.MethodGet, "/api/v1/pledges/history", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPledgeCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)

	_, creatorToken := env.register(t, "creator@test.com")
	_, backerToken := env.register(t, "backer@test.com")

	// 发起人建项目和档位
	w, resp := env.request(t, http.MethodPost, "/api/v1/campaigns", creatorToken, gin.H{
		"title":         "开源硬件键盘",
		"goalAmount":    5000,
		"minimumPledge": 10,
		"startTime":     time.Now().Add(-time.Hour).Format(time.RFC3339),
		"endTime":       time.Now().Add(720 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	campaign := resp["data"].(map[string]interface{})
	campaignID := uint(campaign["id"].(float64))

	w, resp = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/campaigns/%d/tiers", campaignID), creatorToken, gin.H{
			"title":         "早鸟价",
			"amount":        25,
			"quantityLimit": 10,
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tier := resp["data"].(map[string]interface{})
	tierID := uint(tier["id"].(float64))

	// 测试里直接把项目置为进行中
	require.NoError(t, env.db.Model(&model.Campaign{}).
		Where("id = ?", campaignID).
		Update("status", model.CampaignStatusActive).Error)

	// 支持者下单
	w, resp = env.request(t, http.MethodPost, "/api/v1/pledges/paypal/create-order", backerToken, gin.H{
		"campaignId":   campaignID,
		"amount":       25,
		"rewardTierId": tierID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := resp["data"].(map[string]interface{})
	orderID := order["orderID"].(string)
	pledgeID := uint(order["pledgeId"].(float64))
	assert.Contains(t, order["approvalUrl"].(string), "approve")

	// 捕获支付
	w, resp = env.request(t, http.MethodPost, "/api/v1/pledges/paypal/capture-order", backerToken, gin.H{
		"orderId":  orderID,
		"pledgeId": pledgeID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pledge := resp["data"].(map[string]interface{})["pledge"].(map[string]interface{})
	assert.Equal(t, "confirmed", pledge["status"])

	// 重复捕获被拒
	w, resp = env.request(t, http.MethodPost, "/api/v1/pledges/paypal/capture-order", backerToken, gin.H{
		"orderId":  orderID,
		"pledgeId": pledgeID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])

	// 支持历史带统计
	w, resp = env.request(t, http.MethodGet, "/api/v1/pledges/history", backerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	stats := data["stats"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["confirmed_count"])
	assert.InDelta(t, 25.0, stats["confirmed_amount"], 0.001)

	// 发起人看项目支持记录，支持者被拒
	w, _ = env.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/pledges/campaign/%d", campaignID), creatorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/pledges/campaign/%d", campaignID), backerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// 发起人结算流水
	w, resp = env.request(t, http.MethodGet, "/api/v1/transactions/creator/settlement", creatorToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settlement := resp["data"].(map[string]interface{})["settlement"].(map[string]interface{})
	assert.InDelta(t, 25.0, settlement["total_gross"], 0.001)
}
