package models

import (
	"github.com/storesync/backend/internal/domain/identity"
)

// TenantModel is the persistence model for tenants
type TenantModel struct {
	BaseModel
	Name        string `gorm:"size:200;not null"`
	ShopDomain  string `gorm:"size:200;not null;uniqueIndex"`
	AccessToken string `gorm:"size:500"`
	APIKey      string `gorm:"size:500"`
	APISecret   string `gorm:"size:500"`
	Status      string `gorm:"size:20;not null;default:'active'"`
}

// TableName specifies the table name for TenantModel
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		ShopDomain:  m.ShopDomain,
		AccessToken: m.AccessToken,
		APIKey:      m.APIKey,
		APISecret:   m.APISecret,
		Status:      identity.TenantStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain tenant
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Name = t.Name
	m.ShopDomain = t.ShopDomain
	m.AccessToken = t.AccessToken
	m.APIKey = t.APIKey
	m.APISecret = t.APISecret
	m.Status = string(t.Status)
}
