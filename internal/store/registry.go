package store

import (
	"context"
	"errors"
	"fmt"

	"tenant-service/internal/model"

	"gorm.io/gorm"
)

// Registry persists organizations and admins in the relational
// registry database. Uniqueness on organization name and admin email
// is enforced by unique indexes; violations surface as the sentinel
// errors in internal/model.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// CreateOrgWithOwner inserts the organization and its owner admin as a
// pair. There is no cross-store transaction: the org row goes in
// first, and if the admin insert then hits the email unique index the
// org row from this attempt is deleted again (compensating rollback),
// so a half-created pair is never retrievable.
func (r *Registry) CreateOrgWithOwner(ctx context.Context, org *model.Organization, admin *model.Admin) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateName
		}
		return fmt.Errorf("insert organization: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		if rbErr := r.db.WithContext(ctx).Delete(&model.Organization{}, "id = ?", org.ID).Error; rbErr != nil {
			return fmt.Errorf("insert admin: %w (rollback of organization %s failed: %v)", err, org.ID, rbErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

// FindByName looks up an organization by its normalized name.
func (r *Registry) FindByName(ctx context.Context, name string) (*model.Organization, error) {
	var org model.Organization
	err := r.db.WithContext(ctx).Where("name = ?", model.NormalizeName(name)).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrOrgNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}

// FindOrgByID looks up an organization by id.
func (r *Registry) FindOrgByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrOrgNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}

// FindAdminByEmail looks up an admin by normalized email.
func (r *Registry) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

// FindAdminByID looks up an admin by id.
func (r *Registry) FindAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

// UpdateNameAndCollection repoints an organization to its new name and
// backing collection in a single update.
func (r *Registry) UpdateNameAndCollection(ctx context.Context, orgID, newName, newCollection string) error {
	err := r.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", orgID).
		Updates(map[string]interface{}{
			"name":            model.NormalizeName(newName),
			"collection_name": newCollection,
		}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateName
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// UpdateAdmin applies optional email/password changes to an admin.
// Nil fields are left untouched.
func (r *Registry) UpdateAdmin(ctx context.Context, adminID string, email, passwordHash *string) error {
	updates := map[string]interface{}{}
	if email != nil {
		updates["email"] = model.NormalizeEmail(*email)
	}
	if passwordHash != nil {
		updates["password_hash"] = *passwordHash
	}
	if len(updates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Model(&model.Admin{}).
		Where("id = ?", adminID).
		Updates(updates).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// DeleteAdminsByOrg removes every admin record belonging to the org.
func (r *Registry) DeleteAdminsByOrg(ctx context.Context, orgID string) error {
	if err := r.db.WithContext(ctx).Delete(&model.Admin{}, "org_id = ?", orgID).Error; err != nil {
		return fmt.Errorf("delete admins: %w", err)
	}
	return nil
}

// DeleteOrg removes the organization record.
func (r *Registry) DeleteOrg(ctx context.Context, orgID string) error {
	if err := r.db.WithContext(ctx).Delete(&model.Organization{}, "id = ?", orgID).Error; err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return nil
}
