package model

import "github.com/google/uuid"

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (p Principal) IsFarmer() bool {
	return p.Role == RoleFarmer
}

func (p Principal) IsDealer() bool {
	return p.Role == RoleDealer
}
