package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
)

type ContractStore interface {
	Create(ctx context.Context, contract *model.Contract) error
	Get(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	Transition(ctx context.Context, id, farmerID uuid.UUID, status model.ContractStatus) (*model.Contract, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, status *model.ContractStatus) ([]model.Contract, error)
	ListByDealer(ctx context.Context, dealerID uuid.UUID, companyName string) ([]model.Contract, error)
}

type FarmerStore interface {
	Create(ctx context.Context, farmer *model.Farmer) error
	Get(ctx context.Context, id uuid.UUID) (*model.Farmer, error)
	GetByEmail(ctx context.Context, email string) (*model.Farmer, error)
	List(ctx context.Context) ([]model.Farmer, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Farmer, error)
}

type ReceiptStore interface {
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.LedgerReceipt, error)
}

// LedgerNotifier hands an event to the ledger. Notify returns without
// waiting for the ledger and never reports failure to the caller.
type LedgerNotifier interface {
	Notify(event model.LedgerEvent)
}

type TransitionObserver interface {
	ObserveTransition(status model.ContractStatus)
}

type noopNotifier struct{}

func (noopNotifier) Notify(model.LedgerEvent) {}

type noopObserver struct{}

func (noopObserver) ObserveTransition(model.ContractStatus) {}

// ContractService owns the contract lifecycle: pending on creation, then a
// single move to accepted or rejected by the farmer the contract names.
type ContractService struct {
	contracts ContractStore
	farmers   FarmerStore
	receipts  ReceiptStore
	ledger    LedgerNotifier
	observer  TransitionObserver
}

func NewContractService(
	contracts ContractStore,
	farmers FarmerStore,
	receipts ReceiptStore,
	ledger LedgerNotifier,
	observer TransitionObserver,
) *ContractService {
	if ledger == nil {
		ledger = noopNotifier{}
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &ContractService{
		contracts: contracts,
		farmers:   farmers,
		receipts:  receipts,
		ledger:    ledger,
		observer:  observer,
	}
}

type CreateContractInput struct {
	FarmerID        string
	CompanyName     string
	ContractDetails string
	StartDate       string
	EndDate         string
	Duration        *float64
	PricePerUnit    float64
	GSTNumber       string
	Principal       model.Principal
}

func (s *ContractService) CreateContract(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	if !input.Principal.IsDealer() {
		return nil, ErrPermissionDenied
	}

	companyName := strings.TrimSpace(input.CompanyName)
	details := strings.TrimSpace(input.ContractDetails)
	switch {
	case companyName == "":
		return nil, fmt.Errorf("%w: companyName is required", ErrInvalidInput)
	case details == "":
		return nil, fmt.Errorf("%w: contractDetails is required", ErrInvalidInput)
	case strings.TrimSpace(input.StartDate) == "":
		return nil, fmt.Errorf("%w: startDate is required", ErrInvalidInput)
	case strings.TrimSpace(input.EndDate) == "":
		return nil, fmt.Errorf("%w: endDate is required", ErrInvalidInput)
	}
	if math.IsNaN(input.PricePerUnit) || math.IsInf(input.PricePerUnit, 0) || input.PricePerUnit <= 0 {
		return nil, fmt.Errorf("%w: pricePerUnit must be a positive number", ErrInvalidInput)
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startDate", ErrInvalidInput)
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endDate", ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate must not be before startDate", ErrInvalidInput)
	}

	farmerID, err := uuid.Parse(strings.TrimSpace(input.FarmerID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid farmerId", ErrInvalidInput)
	}
	if _, err := s.farmers.Get(ctx, farmerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: farmerId does not reference a farmer", ErrInvalidInput)
		}
		return nil, err
	}

	duration := durationYears(start, end)
	if input.Duration != nil && *input.Duration >= 0 && !math.IsInf(*input.Duration, 0) {
		duration = *input.Duration
	}

	contract := &model.Contract{
		FarmerID:        farmerID,
		CompanyName:     companyName,
		ContractDetails: details,
		StartDate:       start,
		EndDate:         end,
		Duration:        duration,
		PricePerUnit:    input.PricePerUnit,
		GSTNumber:       strings.TrimSpace(input.GSTNumber),
		Status:          model.ContractStatusPending,
		CreatedBy:       input.Principal.UserID,
	}
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}

	s.observer.ObserveTransition(model.ContractStatusPending)
	s.ledger.Notify(model.NewLedgerEvent(*contract))
	return contract, nil
}

// ListPendingForFarmer returns the caller's pending contracts. A caller without
// a farmer profile gets an empty list.
func (s *ContractService) ListPendingForFarmer(ctx context.Context, principal model.Principal) ([]ContractView, error) {
	if !principal.IsFarmer() {
		return nil, ErrPermissionDenied
	}
	farmer, err := s.resolveFarmer(ctx, principal)
	if err != nil {
		return nil, err
	}
	if farmer == nil {
		return []ContractView{}, nil
	}
	return s.listForFarmer(ctx, farmer, model.ContractStatusPending)
}

// ListAccepted returns the caller's accepted contracts only.
func (s *ContractService) ListAccepted(ctx context.Context, principal model.Principal) ([]ContractView, error) {
	if !principal.IsFarmer() {
		return nil, ErrPermissionDenied
	}
	farmer, err := s.resolveFarmer(ctx, principal)
	if err != nil {
		return nil, err
	}
	if farmer == nil {
		return nil, fmt.Errorf("%w: farmer profile not found", ErrNotFound)
	}
	return s.listForFarmer(ctx, farmer, model.ContractStatusAccepted)
}

func (s *ContractService) AcceptContract(ctx context.Context, principal model.Principal, contractID string) (*ContractView, error) {
	return s.transition(ctx, principal, contractID, model.ContractStatusAccepted)
}

func (s *ContractService) RejectContract(ctx context.Context, principal model.Principal, contractID string) (*ContractView, error) {
	return s.transition(ctx, principal, contractID, model.ContractStatusRejected)
}

func (s *ContractService) transition(
	ctx context.Context,
	principal model.Principal,
	rawID string,
	status model.ContractStatus,
) (*ContractView, error) {
	if !principal.IsFarmer() {
		return nil, ErrPermissionDenied
	}
	if !model.CanTransition(model.ContractStatusPending, status) {
		return nil, fmt.Errorf("%w: unsupported status %q", ErrInvalidInput, status)
	}

	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}

	farmer, err := s.resolveFarmer(ctx, principal)
	if err != nil {
		return nil, err
	}
	if farmer == nil {
		return nil, fmt.Errorf("%w: farmer profile not found", ErrNotFound)
	}

	contract, err := s.contracts.Transition(ctx, id, farmer.ID, status)
	if err != nil {
		return nil, fmt.Errorf("transition contract: %w", err)
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}
	s.observer.ObserveTransition(status)

	if status == model.ContractStatusAccepted {
		s.ledger.Notify(model.NewLedgerEvent(*contract))
	}

	view := NewContractView(model.ContractDetail{Contract: *contract, Farmer: farmer})
	return &view, nil
}

// ListAllForDealer returns contracts created by the caller. An empty
// companyName lists every company.
func (s *ContractService) ListAllForDealer(ctx context.Context, principal model.Principal, companyName string) ([]ContractView, error) {
	details, err := s.dealerContracts(ctx, principal, companyName)
	if err != nil {
		return nil, err
	}
	return NewContractViews(details), nil
}

func (s *ContractService) DealerSummary(ctx context.Context, principal model.Principal, companyName string) (model.StatusSummary, error) {
	if !principal.IsDealer() {
		return model.StatusSummary{}, ErrPermissionDenied
	}
	contracts, err := s.contracts.ListByDealer(ctx, principal.UserID, strings.TrimSpace(companyName))
	if err != nil {
		return model.StatusSummary{}, err
	}
	return model.Summarize(contracts), nil
}

func (s *ContractService) DealerReport(ctx context.Context, principal model.Principal, companyName string) (*model.DealerReport, error) {
	details, err := s.dealerContracts(ctx, principal, companyName)
	if err != nil {
		return nil, err
	}
	contracts := make([]model.Contract, 0, len(details))
	for _, d := range details {
		contracts = append(contracts, d.Contract)
	}
	return &model.DealerReport{
		DealerEmail: principal.Email,
		CompanyName: strings.TrimSpace(companyName),
		GeneratedAt: time.Now().UTC(),
		Summary:     model.Summarize(contracts),
		Contracts:   details,
	}, nil
}

// LedgerReceipts lists ledger attempts for a contract the caller created.
// Contracts of other dealers are reported as not found.
func (s *ContractService) LedgerReceipts(ctx context.Context, principal model.Principal, rawID string) ([]LedgerReceiptView, error) {
	if !principal.IsDealer() {
		return nil, ErrPermissionDenied
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}
	contract, err := s.contracts.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if contract.CreatedBy != principal.UserID {
		return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
	}

	receipts, err := s.receipts.ListByContract(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewLedgerReceiptViews(receipts), nil
}

func (s *ContractService) dealerContracts(ctx context.Context, principal model.Principal, companyName string) ([]model.ContractDetail, error) {
	if !principal.IsDealer() {
		return nil, ErrPermissionDenied
	}
	contracts, err := s.contracts.ListByDealer(ctx, principal.UserID, strings.TrimSpace(companyName))
	if err != nil {
		return nil, err
	}
	return s.joinFarmers(ctx, contracts)
}

func (s *ContractService) listForFarmer(ctx context.Context, farmer *model.Farmer, status model.ContractStatus) ([]ContractView, error) {
	contracts, err := s.contracts.ListByFarmer(ctx, farmer.ID, &status)
	if err != nil {
		return nil, err
	}
	details := make([]model.ContractDetail, 0, len(contracts))
	for _, c := range contracts {
		details = append(details, model.ContractDetail{Contract: c, Farmer: farmer})
	}
	return NewContractViews(details), nil
}

func (s *ContractService) joinFarmers(ctx context.Context, contracts []model.Contract) ([]model.ContractDetail, error) {
	seen := make(map[uuid.UUID]struct{}, len(contracts))
	ids := make([]uuid.UUID, 0, len(contracts))
	for _, c := range contracts {
		if _, ok := seen[c.FarmerID]; ok {
			continue
		}
		seen[c.FarmerID] = struct{}{}
		ids = append(ids, c.FarmerID)
	}

	farmers, err := s.farmers.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Farmer, len(farmers))
	for i := range farmers {
		byID[farmers[i].ID] = &farmers[i]
	}

	details := make([]model.ContractDetail, 0, len(contracts))
	for _, c := range contracts {
		details = append(details, model.ContractDetail{Contract: c, Farmer: byID[c.FarmerID]})
	}
	return details, nil
}

// resolveFarmer finds the farmer profile matching the caller's email.
// It returns nil without error when there is none.
func (s *ContractService) resolveFarmer(ctx context.Context, principal model.Principal) (*model.Farmer, error) {
	email := normalizeEmail(principal.Email)
	if email == "" {
		return nil, nil
	}
	farmer, err := s.farmers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return farmer, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: contract not found", ErrNotFound)
	}
	return err
}

// durationYears is the span in years, rounded to two decimals.
func durationYears(start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	return math.Round(days/365*100) / 100
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidInput
}
