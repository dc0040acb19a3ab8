package model

import (
	"strings"
	"time"
)

// Organization represents one tenant in the registry.
// Name is stored normalized (lower-cased); CollectionName keeps the
// caller's original casing and always points at the Mongo collection
// holding the tenant's documents.
type Organization struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name           string    `json:"organization_name" gorm:"type:varchar(100);uniqueIndex;not null"`
	CollectionName string    `json:"collection_name" gorm:"type:varchar(100);not null"`
	OwnerAdminID   string    `json:"admin_user_id" gorm:"type:varchar(36);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizeName lower-cases an organization name for registry lookups.
// Uniqueness is case-insensitive: "Acme" and "acme" are the same org.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
