package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/apperrors"
	"github.com/withjoono/grinalda-sub000/gateway"
)

type providerStub struct {
	mux        *http.ServeMux
	tokenCalls int
}

func newProviderStub(t *testing.T) (*providerStub, *httptest.Server) {
	t.Helper()
	stub := &providerStub{mux: http.NewServeMux()}
	stub.mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["api_key"] != "key" || creds["api_secret"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		stub.tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	})
	server := httptest.NewServer(stub.mux)
	t.Cleanup(server.Close)
	return stub, server
}

func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
}

func TestGetPaymentInfo(t *testing.T) {
	stub, server := newProviderStub(t)
	stub.mux.HandleFunc("GET /payments/imp-1", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		_ = json.NewEncoder(w).Encode(gateway.PaymentInfo{
			TransactionID: "imp-1",
			MerchantUID:   "order-abc",
			Status:        gateway.StatusPaid,
			Amount:        8500,
			CardName:      "국민카드",
		})
	})

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	info, err := client.GetPaymentInfo(context.Background(), "imp-1")
	require.NoError(t, err)

	assert.Equal(t, gateway.StatusPaid, info.Status)
	assert.Equal(t, 8500, info.Amount)
	assert.Equal(t, "order-abc", info.MerchantUID)
	assert.Equal(t, 1, stub.tokenCalls)
}

func TestFindPaymentByMerchantUID(t *testing.T) {
	stub, server := newProviderStub(t)
	stub.mux.HandleFunc("GET /payments/find/order-abc", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		_ = json.NewEncoder(w).Encode(gateway.PaymentInfo{
			TransactionID: "imp-9",
			MerchantUID:   "order-abc",
			Status:        gateway.StatusReady,
		})
	})

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	info, err := client.FindPayment(context.Background(), "order-abc")
	require.NoError(t, err)
	assert.Equal(t, "imp-9", info.TransactionID)
	assert.Equal(t, gateway.StatusReady, info.Status)
}

func TestCancelPayment(t *testing.T) {
	stub, server := newProviderStub(t)
	stub.mux.HandleFunc("POST /payments/cancel", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "imp-1", req["transaction_id"])
		assert.Equal(t, "order-abc", req["merchant_uid"])
		assert.Equal(t, "amount mismatch", req["reason"])
		_ = json.NewEncoder(w).Encode(gateway.PaymentInfo{
			TransactionID: "imp-1",
			MerchantUID:   "order-abc",
			Status:        gateway.StatusCancelled,
			CancelAmount:  8500,
		})
	})

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	info, err := client.CancelPayment(context.Background(), "imp-1", "order-abc", "amount mismatch")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusCancelled, info.Status)
	assert.Equal(t, 8500, info.CancelAmount)
	assert.Equal(t, 1, stub.tokenCalls)
}

func TestTokenObtainedPerCall(t *testing.T) {
	stub, server := newProviderStub(t)
	stub.mux.HandleFunc("GET /payments/imp-1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(gateway.PaymentInfo{TransactionID: "imp-1", Status: gateway.StatusPaid})
	})

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	_, err := client.GetPaymentInfo(context.Background(), "imp-1")
	require.NoError(t, err)
	_, err = client.GetPaymentInfo(context.Background(), "imp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stub.tokenCalls)
}

func TestBadCredentials(t *testing.T) {
	_, server := newProviderStub(t)

	client := gateway.NewClient(server.URL, "key", "wrong", server.Client(), zap.NewNop())
	_, err := client.GetPaymentInfo(context.Background(), "imp-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindGateway, apperrors.KindOf(err))
}

func TestEmptyAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": ""})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	_, err := client.GetAccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty access token")
}

func TestGatewayErrorStatus(t *testing.T) {
	stub, server := newProviderStub(t)
	stub.mux.HandleFunc("GET /payments/imp-404", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"payment not found"}`, http.StatusNotFound)
	})

	client := gateway.NewClient(server.URL, "key", "secret", server.Client(), zap.NewNop())
	_, err := client.GetPaymentInfo(context.Background(), "imp-404")
	require.Error(t, err)

	appErr := apperrors.From(err)
	assert.Equal(t, apperrors.KindGateway, appErr.Kind)
	assert.Contains(t, appErr.Message, "404")
}
