package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/blues/cps/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(config.PayPalConfig{
		BaseURL:      server.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		ReturnURL:    "https://cps.test/checkout/return",
		CancelURL:    "https://cps.test/checkout/cancel",
		TimeoutSec:   5,
	})
	return client, server
}

func writeToken(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": "test-token",
		"expires_in":   3600,
	})
}

func TestCreateOrder(t *testing.T) {
	var gotBody createOrderRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-client", user)
		assert.Equal(t, "test-secret", pass)
		writeToken(w)
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("PayPal-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "5O190127TN364715T",
			"status": "CREATED",
			"links": []map[string]string{
				{"href": "https://api.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T", "rel": "self", "method": "GET"},
				{"href": "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", "rel": "approve", "method": "GET"},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	order, err := client.CreateOrder(context.Background(), 42, 25.5, "USD", "测试项目")
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", order.ID)
	assert.Equal(t, "CREATED", order.Status)
	assert.Contains(t, order.ApprovalURL(), "checkoutnow")

	require.Len(t, gotBody.PurchaseUnits, 1)
	assert.Equal(t, "CAPTURE", gotBody.Intent)
	assert.Equal(t, "pledge-42", gotBody.PurchaseUnits[0].ReferenceID)
	assert.Equal(t, "42", gotBody.PurchaseUnits[0].CustomID)
	assert.Equal(t, "25.50", gotBody.PurchaseUnits[0].Amount.Value)
	assert.Equal(t, "USD", gotBody.PurchaseUnits[0].Amount.CurrencyCode)
	require.NotNil(t, gotBody.ApplicationContext)
	assert.Equal(t, "https://cps.test/checkout/return", gotBody.ApplicationContext.ReturnURL)
}

func TestCaptureOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w)
	})
	mux.HandleFunc("/v2/checkout/orders/5O190127TN364715T/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "5O190127TN364715T",
			"status": "COMPLETED",
			"purchase_units": []map[string]interface{}{{
				"payments": map[string]interface{}{
					"captures": []map[string]interface{}{{
						"id":     "3C679366HH908993F",
						"status": "COMPLETED",
						"amount": map[string]string{"currency_code": "USD", "value": "25.50"},
					}},
				},
			}},
			"payer": map[string]string{"email_address": "backer@example.com"},
		})
	})

	client, _ := newTestClient(t, mux)

	capture, err := client.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", capture.OrderID)
	assert.Equal(t, "3C679366HH908993F", capture.CaptureID)
	assert.Equal(t, "COMPLETED", capture.Status)
	assert.Equal(t, 25.50, capture.Amount)
	assert.Equal(t, "USD", capture.Currency)
	assert.Equal(t, "backer@example.com", capture.PayerEmail)
}

func TestCaptureOrderAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w)
	})
	mux.HandleFunc("/v2/checkout/orders/BAD/capture", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"name":    "ORDER_NOT_APPROVED",
			"message": "Payer has not yet approved the Order for payment.",
		})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.CaptureOrder(context.Background(), "BAD")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "ORDER_NOT_APPROVED", apiErr.Name)
	assert.Contains(t, apiErr.Error(), "ORDER_NOT_APPROVED")
}

func TestTokenIsCached(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		writeToken(w)
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "X", "status": "CREATED"})
	})

	client, _ := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		_, err := client.CreateOrder(context.Background(), uint(i+1), 10, "USD", "t")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls))
}

func TestTokenFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"name":    "AUTHENTICATION_FAILURE",
			"message": "Authentication failed due to invalid authentication credentials.",
		})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.CreateOrder(context.Background(), 1, 10, "USD", "t")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestApprovalURLPayerAction(t *testing.T) {
	order := Order{Links: []Link{
		{Href: "https://api.paypal.com/self", Rel: "self"},
		{Href: "https://www.paypal.com/pay", Rel: "payer-action"},
	}}
	assert.Equal(t, "https://www.paypal.com/pay", order.ApprovalURL())

	empty := Order{}
	assert.Empty(t, empty.ApprovalURL())
}
