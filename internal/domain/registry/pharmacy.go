// Package registry contains the pharmacy membership register.
package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/shared"
)

// PharmacyStatus represents the membership standing of a pharmacy
type PharmacyStatus string

const (
	PharmacyStatusActive    PharmacyStatus = "ACTIVE"
	PharmacyStatusSuspended PharmacyStatus = "SUSPENDED"
	PharmacyStatusClosed    PharmacyStatus = "CLOSED"
)

// IsValid checks if the status is a valid PharmacyStatus
func (s PharmacyStatus) IsValid() bool {
	switch s {
	case PharmacyStatusActive, PharmacyStatusSuspended, PharmacyStatusClosed:
		return true
	}
	return false
}

// Pharmacy is a registered member premises of the association
type Pharmacy struct {
	shared.BaseAggregateRoot
	RegistrationNumber string         `json:"registration_number"`
	Name               string         `json:"name"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone"`
	Superintendent     string         `json:"superintendent"`
	Address            string         `json:"address"`
	Status             PharmacyStatus `json:"status"`
	RegisteredAt       time.Time      `json:"registered_at"`
	OwnerUserID        *uuid.UUID     `json:"owner_user_id,omitempty"`
}

// NewPharmacy registers a pharmacy with an already-allocated registration number
func NewPharmacy(registrationNumber, name, email, phone, superintendent, address string) (*Pharmacy, error) {
	if registrationNumber == "" {
		return nil, shared.NewDomainError("INVALID_REGISTRATION_NUMBER", "Registration number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Pharmacy name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Pharmacy name cannot exceed 200 characters")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Contact email cannot be empty")
	}

	return &Pharmacy{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		RegistrationNumber: registrationNumber,
		Name:               name,
		Email:              email,
		Phone:              phone,
		Superintendent:     superintendent,
		Address:            address,
		Status:             PharmacyStatusActive,
		RegisteredAt:       time.Now(),
	}, nil
}

// UpdateProfile changes the contact details of the pharmacy
func (p *Pharmacy) UpdateProfile(name, email, phone, superintendent, address string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Pharmacy name cannot be empty")
	}
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Contact email cannot be empty")
	}

	p.Name = name
	p.Email = email
	p.Phone = phone
	p.Superintendent = superintendent
	p.Address = address
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AssignOwner links the authenticated member account that manages this pharmacy
func (p *Pharmacy) AssignOwner(userID uuid.UUID) {
	p.OwnerUserID = &userID
	p.Touch()
	p.IncrementVersion()
}

// Suspend removes the pharmacy from active membership
func (p *Pharmacy) Suspend() error {
	if p.Status != PharmacyStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only an active pharmacy can be suspended")
	}
	p.Status = PharmacyStatusSuspended
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Reactivate restores a suspended pharmacy to active membership
func (p *Pharmacy) Reactivate() error {
	if p.Status != PharmacyStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Only a suspended pharmacy can be reactivated")
	}
	p.Status = PharmacyStatusActive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Close permanently retires the pharmacy from the register
func (p *Pharmacy) Close() error {
	if p.Status == PharmacyStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Pharmacy is already closed")
	}
	p.Status = PharmacyStatusClosed
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the pharmacy is in active membership
func (p *Pharmacy) IsActive() bool {
	return p.Status == PharmacyStatusActive
}

// IsOwnedBy reports whether the given user account manages this pharmacy
func (p *Pharmacy) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerUserID != nil && *p.OwnerUserID == userID
}
