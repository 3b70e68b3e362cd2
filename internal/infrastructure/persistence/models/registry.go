package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/registry"
)

// PharmacyModel is the persistence model for the Pharmacy aggregate.
type PharmacyModel struct {
	AggregateModel
	RegistrationNumber string                  `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name               string                  `gorm:"type:varchar(200);not null"`
	Email              string                  `gorm:"type:varchar(200);not null;index"`
	Phone              string                  `gorm:"type:varchar(50)"`
	Superintendent     string                  `gorm:"type:varchar(200)"`
	Address            string                  `gorm:"type:text"`
	Status             registry.PharmacyStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	RegisteredAt       time.Time               `gorm:"not null"`
	OwnerUserID        *uuid.UUID              `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PharmacyModel) TableName() string {
	return "pharmacies"
}

// ToDomain converts the persistence model to a domain Pharmacy aggregate.
func (m *PharmacyModel) ToDomain() *registry.Pharmacy {
	return &registry.Pharmacy{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		RegistrationNumber: m.RegistrationNumber,
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Superintendent:     m.Superintendent,
		Address:            m.Address,
		Status:             m.Status,
		RegisteredAt:       m.RegisteredAt,
		OwnerUserID:        m.OwnerUserID,
	}
}

// FromDomain populates the persistence model from a domain Pharmacy aggregate.
func (m *PharmacyModel) FromDomain(p *registry.Pharmacy) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.RegistrationNumber = p.RegistrationNumber
	m.Name = p.Name
	m.Email = p.Email
	m.Phone = p.Phone
	m.Superintendent = p.Superintendent
	m.Address = p.Address
	m.Status = p.Status
	m.RegisteredAt = p.RegisteredAt
	m.OwnerUserID = p.OwnerUserID
}

// PharmacyModelFromDomain creates a new persistence model from a domain Pharmacy aggregate.
func PharmacyModelFromDomain(p *registry.Pharmacy) *PharmacyModel {
	m := &PharmacyModel{}
	m.FromDomain(p)
	return m
}

// SequenceCounterModel backs the registration number allocator. Values are
// advanced with an atomic upsert, never read-modify-write.
type SequenceCounterModel struct {
	Name      string    `gorm:"type:varchar(100);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}
