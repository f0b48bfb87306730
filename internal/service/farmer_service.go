package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
	"github.com/HGakash/agrihub/internal/repository"
)

type FarmerService struct {
	farmers FarmerStore
}

func NewFarmerService(farmers FarmerStore) *FarmerService {
	return &FarmerService{farmers: farmers}
}

type CreateFarmerInput struct {
	Name       string
	Email      string
	Location   string
	Produce    string
	Experience int
	Contact    string
}

func (s *FarmerService) Create(ctx context.Context, input CreateFarmerInput) (*model.Farmer, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case input.Experience < 0:
		return nil, fmt.Errorf("%w: experience must not be negative", ErrInvalidInput)
	}

	farmer := &model.Farmer{
		Name:       name,
		Email:      email,
		Location:   strings.TrimSpace(input.Location),
		Produce:    strings.TrimSpace(input.Produce),
		Experience: input.Experience,
		Contact:    strings.TrimSpace(input.Contact),
	}
	if err := s.farmers.Create(ctx, farmer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: farmer email already registered", ErrConflict)
		}
		return nil, err
	}
	return farmer, nil
}

func (s *FarmerService) List(ctx context.Context) ([]FarmerView, error) {
	farmers, err := s.farmers.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]FarmerView, 0, len(farmers))
	for _, f := range farmers {
		views = append(views, NewFarmerView(f))
	}
	return views, nil
}

func (s *FarmerService) Get(ctx context.Context, rawID string) (*FarmerView, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("%w: farmer not found", ErrNotFound)
	}
	farmer, err := s.farmers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: farmer not found", ErrNotFound)
		}
		return nil, err
	}
	view := NewFarmerView(*farmer)
	return &view, nil
}
