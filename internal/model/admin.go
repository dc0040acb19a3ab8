package model

import (
	"strings"
	"time"
)

// Role assigned to the admin created together with its organization.
const RoleOwner = "owner"

// Admin represents an organization administrator. Email is stored
// normalized (lower-cased) and is unique across all organizations.
type Admin struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	OrgID        string    `json:"org_id" gorm:"type:varchar(36);index;not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);not null;default:'owner'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases an admin email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
