package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/HGakash/agrihub/internal/auth"
	"github.com/HGakash/agrihub/internal/excel"
	"github.com/HGakash/agrihub/internal/http/middleware"
	"github.com/HGakash/agrihub/internal/ledger"
	"github.com/HGakash/agrihub/internal/metrics"
	"github.com/HGakash/agrihub/internal/model"
	"github.com/HGakash/agrihub/internal/pdf"
	"github.com/HGakash/agrihub/internal/repository"
	"github.com/HGakash/agrihub/internal/service"
	"github.com/HGakash/agrihub/internal/testutil"
	"github.com/HGakash/agrihub/internal/weather"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// unreachableLedger fails every write, standing in for a node that is down.
type unreachableLedger struct{}

func (unreachableLedger) Write(context.Context, model.LedgerEvent) (string, error) {
	return "", errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
}

type testServer struct {
	t          *testing.T
	router     *gin.Engine
	dispatcher *ledger.Dispatcher
	metrics    *metrics.Metrics
}

func newTestServer(t *testing.T, weatherURL string) *testServer {
	t.Helper()
	database := testutil.NewDB(t)
	m := metrics.New()

	contracts := repository.NewContractRepository(database)
	farmers := repository.NewFarmerRepository(database)
	users := repository.NewUserRepository(database)
	receipts := repository.NewLedgerRepository(database)

	dispatcher := ledger.NewDispatcher(unreachableLedger{}, receipts, m, zerolog.Nop(), ledger.Options{Timeout: time.Second})
	t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })

	contractService := service.NewContractService(contracts, farmers, receipts, dispatcher, m)
	services := Services{
		Contracts: contractService,
		Accounts:  service.NewAccountService(users, auth.NewIssuer(testSecret, time.Hour)),
		Farmers:   service.NewFarmerService(farmers),
		Reports:   service.NewReportService(contractService, excel.NewGenerator(), pdf.NewGenerator()),
	}
	if weatherURL != "" {
		services.Weather = weather.NewClient(weather.Options{BaseURL: weatherURL, Timeout: time.Second}, zerolog.Nop())
	}

	handler := NewHandler(services, zerolog.Nop())
	router := NewRouter(handler, middleware.Auth(auth.NewParser(testSecret)), RouterConfig{
		Environment: "test",
		Log:         zerolog.Nop(),
		Observer:    m,
		Metrics:     m.Handler(),
	})
	return &testServer{t: t, router: router, dispatcher: dispatcher, metrics: m}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type account struct {
	token    string
	farmerID string
}

// signUp registers and logs in a user. Farmers also get a profile.
func (s *testServer) signUp(email string, role model.Role) account {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": email, "email": email, "password": "secret123", "role": string(role),
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "secret123", "role": string(role),
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &login)

	acc := account{token: login.Token}
	if role == model.RoleFarmer {
		rec = s.do(http.MethodPost, "/api/farmers", acc.token, map[string]any{
			"name": "Farmer " + email, "email": email, "location": "Mandya", "produce": "Ragi", "experience": 5,
		})
		require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
		var farmer service.FarmerView
		decode(s.t, rec, &farmer)
		acc.farmerID = farmer.ID
	}
	return acc
}

func (s *testServer) createContract(dealer account, body map[string]any) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/contracts/create", dealer.token, body)
}

func contractBody(farmerID string) map[string]any {
	return map[string]any{
		"farmerId":        farmerID,
		"companyName":     "Acme Foods",
		"contractDetails": "10 tonnes of ragi",
		"startDate":       "2024-01-01",
		"endDate":         "2025-01-01",
		"pricePerUnit":    50,
		"gstNumber":       "29ABCDE1234F1Z5",
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}
