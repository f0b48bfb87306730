package service

import (
	"time"

	"github.com/HGakash/agrihub/internal/model"
)

const dateLayout = "2006-01-02"

// ContractView is the API shape of a contract joined with its farmer.
type ContractView struct {
	ID              string               `json:"id"`
	FarmerID        string               `json:"farmerId"`
	FarmerName      string               `json:"farmerName,omitempty"`
	FarmerEmail     string               `json:"farmerEmail,omitempty"`
	FarmerLocation  string               `json:"farmerLocation,omitempty"`
	FarmerProduce   string               `json:"farmerProduce,omitempty"`
	CompanyName     string               `json:"companyName"`
	ContractDetails string               `json:"contractDetails"`
	StartDate       string               `json:"startDate"`
	EndDate         string               `json:"endDate"`
	Duration        float64              `json:"duration"`
	PricePerUnit    float64              `json:"pricePerUnit"`
	GSTNumber       string               `json:"gstNumber,omitempty"`
	Status          model.ContractStatus `json:"status"`
	CreatedBy       string               `json:"createdBy"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func NewContractView(detail model.ContractDetail) ContractView {
	c := detail.Contract
	view := ContractView{
		ID:              c.ID.String(),
		FarmerID:        c.FarmerID.String(),
		CompanyName:     c.CompanyName,
		ContractDetails: c.ContractDetails,
		StartDate:       formatDate(c.StartDate),
		EndDate:         formatDate(c.EndDate),
		Duration:        c.Duration,
		PricePerUnit:    c.PricePerUnit,
		GSTNumber:       c.GSTNumber,
		Status:          c.Status,
		CreatedBy:       c.CreatedBy.String(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if f := detail.Farmer; f != nil {
		view.FarmerName = f.Name
		view.FarmerEmail = f.Email
		view.FarmerLocation = f.Location
		view.FarmerProduce = f.Produce
	}
	return view
}

// NewContractViews never returns nil so empty listings encode as [].
func NewContractViews(details []model.ContractDetail) []ContractView {
	views := make([]ContractView, 0, len(details))
	for _, d := range details {
		views = append(views, NewContractView(d))
	}
	return views
}

type LedgerReceiptView struct {
	ID         string               `json:"id"`
	ContractID string               `json:"contractId"`
	Status     model.ContractStatus `json:"status"`
	Outcome    model.LedgerOutcome  `json:"outcome"`
	TxHash     string               `json:"txHash,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

func NewLedgerReceiptViews(receipts []model.LedgerReceipt) []LedgerReceiptView {
	views := make([]LedgerReceiptView, 0, len(receipts))
	for _, r := range receipts {
		views = append(views, LedgerReceiptView{
			ID:         r.ID.String(),
			ContractID: r.ContractID.String(),
			Status:     r.Status,
			Outcome:    r.Outcome,
			TxHash:     r.TxHash,
			Error:      r.Error,
			CreatedAt:  r.CreatedAt,
		})
	}
	return views
}

type UserView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func NewUserView(u model.User) UserView {
	return UserView{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}

type FarmerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Location   string `json:"location"`
	Produce    string `json:"produce"`
	Experience int    `json:"experience"`
	Contact    string `json:"contact"`
}

func NewFarmerView(f model.Farmer) FarmerView {
	return FarmerView{
		ID:         f.ID.String(),
		Name:       f.Name,
		Email:      f.Email,
		Location:   f.Location,
		Produce:    f.Produce,
		Experience: f.Experience,
		Contact:    f.Contact,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
