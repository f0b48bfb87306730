package http

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HGakash/agrihub/internal/model"
	"github.com/HGakash/agrihub/internal/service"
)

func TestContractLifecycle(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)
	other := s.signUp("meena@example.com", model.RoleFarmer)

	rec := s.createContract(dealer, contractBody(farmer.farmerID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = s.do(http.MethodGet, "/contracts/farmer/mycontract", farmer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []service.ContractView
	decode(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, model.ContractStatusPending, pending[0].Status)
	assert.Equal(t, "Farmer ravi@example.com", pending[0].FarmerName)
	assert.Equal(t, "Mandya", pending[0].FarmerLocation)
	assert.Equal(t, "2024-01-01", pending[0].StartDate)
	assert.Equal(t, 1.0, pending[0].Duration)

	rec = s.do(http.MethodGet, "/contracts/farmer/mycontract", other.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, other.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"contract not found"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, farmer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted service.ContractView
	decode(t, rec, &accepted)
	assert.Equal(t, model.ContractStatusAccepted, accepted.Status)
	assert.Equal(t, created.ID, accepted.ID)

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, farmer.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, "/contracts/reject/"+created.ID, farmer.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/dealer/all", dealer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []service.ContractView
	decode(t, rec, &all)
	require.Len(t, all, 1)
	assert.Equal(t, model.ContractStatusAccepted, all[0].Status)
	assert.Equal(t, "ravi@example.com", all[0].FarmerEmail)

	rec = s.do(http.MethodGet, "/contracts/accepted", farmer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []service.ContractView
	decode(t, rec, &mine)
	assert.Len(t, mine, 1)

	rec = s.do(http.MethodGet, "/contracts/accepted", other.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ContractTransitions.WithLabelValues("accepted")))
}

func TestRejectContract(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	rec := s.createContract(dealer, contractBody(farmer.farmerID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = s.do(http.MethodPost, "/contracts/reject/"+created.ID, farmer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.ContractView
	decode(t, rec, &view)
	assert.Equal(t, model.ContractStatusRejected, view.Status)

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, farmer.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/dealer/all", dealer.token, nil)
	var all []service.ContractView
	decode(t, rec, &all)
	require.Len(t, all, 1, "rejected contracts are kept")
	assert.Equal(t, model.ContractStatusRejected, all[0].Status)
}

func TestCreateContract_Validation(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	tests := []struct {
		name   string
		mutate func(body map[string]any)
	}{
		{"zero price", func(b map[string]any) { b["pricePerUnit"] = 0 }},
		{"negative price", func(b map[string]any) { b["pricePerUnit"] = -3 }},
		{"end before start", func(b map[string]any) { b["endDate"] = "2023-12-31" }},
		{"missing company", func(b map[string]any) { delete(b, "companyName") }},
		{"missing details", func(b map[string]any) { b["contractDetails"] = "  " }},
		{"missing start", func(b map[string]any) { delete(b, "startDate") }},
		{"bad date", func(b map[string]any) { b["endDate"] = "next year" }},
		{"bad farmer id", func(b map[string]any) { b["farmerId"] = "42" }},
		{"unknown farmer", func(b map[string]any) { b["farmerId"] = "6f1c1f5e-1c8e-4c4e-9b55-1d7c0e3e7a11" }},
		{"price as text", func(b map[string]any) { b["pricePerUnit"] = "fifty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := contractBody(farmer.farmerID)
			tt.mutate(body)
			rec := s.createContract(dealer, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error":"invalid_input"`)
		})
	}

	rec := s.do(http.MethodGet, "/contracts/dealer/all", dealer.token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateContract_SameDayAndExplicitDuration(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	body := contractBody(farmer.farmerID)
	body["endDate"] = body["startDate"]
	body["duration"] = 0.5
	rec := s.createContract(dealer, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/contracts/farmer/mycontract", farmer.token, nil)
	var pending []service.ContractView
	decode(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, 0.5, pending[0].Duration)
}

func TestCreateContract_DurationFormats(t *testing.T) {
	tests := []struct {
		name     string
		duration any
		want     float64
	}{
		{"numeric string", "2.50", 2.5},
		{"form value", "1.00", 1},
		{"empty string", "", 1},
		{"null", nil, 1},
		{"not a number", "one year", 1},
		{"number", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, "")
			dealer := s.signUp("dealer@example.com", model.RoleDealer)
			farmer := s.signUp("ravi@example.com", model.RoleFarmer)

			body := contractBody(farmer.farmerID)
			body["duration"] = tt.duration
			rec := s.createContract(dealer, body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			rec = s.do(http.MethodGet, "/contracts/farmer/mycontract", farmer.token, nil)
			var pending []service.ContractView
			decode(t, rec, &pending)
			require.Len(t, pending, 1)
			assert.Equal(t, tt.want, pending[0].Duration)
		})
	}
}

func TestContracts_Authorization(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	rec := s.do(http.MethodPost, "/contracts/create", "", contractBody(farmer.farmerID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/contracts/create", "not-a-token", contractBody(farmer.farmerID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.createContract(farmer, contractBody(farmer.farmerID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.createContract(dealer, contractBody(farmer.farmerID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, dealer.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/dealer/all", farmer.token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/contracts/accept/not-a-uuid", farmer.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContracts_FarmerWithoutProfile(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	// A farmer login with no profile row.
	rec := s.do(http.MethodPost, "/api/register", "", map[string]string{
		"email": "new@example.com", "password": "secret123", "role": "farmer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "new@example.com", "password": "secret123"})
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)

	rec = s.createContract(dealer, contractBody(farmer.farmerID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = s.do(http.MethodGet, "/contracts/farmer/mycontract", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/contracts/accepted", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/contracts/accept/"+created.ID, login.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDealerSummaryAndCompanyFilter(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	rival := s.signUp("rival@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	ids := make([]string, 0, 4)
	for _, company := range []string{"Acme Foods", "Acme Foods", "Green Agro", "Green Agro"} {
		body := contractBody(farmer.farmerID)
		body["companyName"] = company
		rec := s.createContract(dealer, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			ID string `json:"id"`
		}
		decode(t, rec, &created)
		ids = append(ids, created.ID)
	}
	require.Equal(t, http.StatusCreated, s.createContract(rival, contractBody(farmer.farmerID)).Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/contracts/accept/"+ids[0], farmer.token, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/contracts/reject/"+ids[2], farmer.token, nil).Code)

	rec := s.do(http.MethodGet, "/contracts/dealer/summary", dealer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary model.StatusSummary
	decode(t, rec, &summary)
	assert.Equal(t, model.StatusSummary{Pending: 2, Accepted: 1, Rejected: 1, Total: 4}, summary)
	assert.Equal(t, summary.Total, summary.Pending+summary.Accepted+summary.Rejected)

	rec = s.do(http.MethodGet, "/contracts/dealer/all", dealer.token, nil)
	var all []service.ContractView
	decode(t, rec, &all)
	assert.Len(t, all, summary.Total)

	rec = s.do(http.MethodGet, "/contracts/dealer/all?companyName=Green+Agro", dealer.token, nil)
	var green []service.ContractView
	decode(t, rec, &green)
	require.Len(t, green, 2)
	for _, v := range green {
		assert.Equal(t, "Green Agro", v.CompanyName)
	}

	rec = s.do(http.MethodGet, "/contracts/dealer/summary?companyName=Acme+Foods", dealer.token, nil)
	decode(t, rec, &summary)
	assert.Equal(t, model.StatusSummary{Pending: 1, Accepted: 1, Total: 2}, summary)
}

func TestDealerExport(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)
	require.Equal(t, http.StatusCreated, s.createContract(dealer, contractBody(farmer.farmerID)).Code)

	rec := s.do(http.MethodGet, "/contracts/dealer/export?format=xlsx&companyName=Acme+Foods", dealer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="contracts-Acme-Foods-`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = s.do(http.MethodGet, "/contracts/dealer/export?format=pdf", dealer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="contracts-all-`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = s.do(http.MethodGet, "/contracts/dealer/export?format=docx", dealer.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerFailureDoesNotChangeOutcome(t *testing.T) {
	s := newTestServer(t, "")
	dealer := s.signUp("dealer@example.com", model.RoleDealer)
	rival := s.signUp("rival@example.com", model.RoleDealer)
	farmer := s.signUp("ravi@example.com", model.RoleFarmer)

	rec := s.createContract(dealer, contractBody(farmer.farmerID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/contracts/accept/"+created.ID, farmer.token, nil).Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.dispatcher.Close(ctx))

	rec = s.do(http.MethodGet, "/contracts/ledger/"+created.ID, dealer.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var receipts []service.LedgerReceiptView
	decode(t, rec, &receipts)
	require.Len(t, receipts, 2)
	statuses := []model.ContractStatus{receipts[0].Status, receipts[1].Status}
	assert.ElementsMatch(t, []model.ContractStatus{model.ContractStatusPending, model.ContractStatusAccepted}, statuses)
	for _, r := range receipts {
		assert.Equal(t, model.LedgerOutcomeFailed, r.Outcome)
		assert.Contains(t, r.Error, "connection refused")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.LedgerWrites.WithLabelValues("failed")))

	rec = s.do(http.MethodGet, "/contracts/ledger/"+created.ID, rival.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
