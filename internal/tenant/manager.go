// Package tenant implements the tenant lifecycle: provisioning an
// organization with its owner admin and backing collection, renaming
// an organization (which migrates its entire document collection), and
// deleting an organization with everything it owns.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenant-service/internal/apperr"
	"tenant-service/internal/model"
	"tenant-service/pkg/jwtutil"
	"tenant-service/pkg/password"
	"tenant-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry is the credential-store contract the manager drives. The
// GORM-backed implementation lives in internal/store.
type Registry interface {
	CreateOrgWithOwner(ctx context.Context, org *model.Organization, admin *model.Admin) error
	FindByName(ctx context.Context, name string) (*model.Organization, error)
	FindOrgByID(ctx context.Context, id string) (*model.Organization, error)
	FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindAdminByID(ctx context.Context, id string) (*model.Admin, error)
	UpdateNameAndCollection(ctx context.Context, orgID, newName, newCollection string) error
	UpdateAdmin(ctx context.Context, adminID string, email, passwordHash *string) error
	DeleteAdminsByOrg(ctx context.Context, orgID string) error
	DeleteOrg(ctx context.Context, orgID string) error
}

// DocumentStore is the bulk document-store contract: named collections
// of opaque documents that can be provisioned, copied wholesale and
// dropped.
type DocumentStore interface {
	Provision(ctx context.Context, name, orgID string) error
	EnsureExists(ctx context.Context, name string) error
	Copy(ctx context.Context, src, dst string) (int64, error)
	Drop(ctx context.Context, name string) error
}

// TokenIssuer issues session tokens for admins who pass the
// credential check.
type TokenIssuer interface {
	Issue(adminID, orgID, email, role string) (string, time.Time, error)
	TTL() time.Duration
}

// Manager orchestrates lifecycle operations against the registry and
// the document store. Multi-step sequences are not transactional;
// consistency comes from ordering (the registry never points at a
// collection that is not fully populated) plus compensating actions.
type Manager struct {
	registry Registry
	docs     DocumentStore
	tokens   TokenIssuer
	locks    *orgLocks
	log      *zap.Logger
}

func NewManager(registry Registry, docs DocumentStore, tokens TokenIssuer, log *zap.Logger) *Manager {
	return &Manager{
		registry: registry,
		docs:     docs,
		tokens:   tokens,
		locks:    newOrgLocks(),
		log:      log,
	}
}

// CreateResult reports a provisioned organization.
type CreateResult struct {
	OrgID          string `json:"org_id"`
	Name           string `json:"organization_name"`
	CollectionName string `json:"collection_name"`
}

// Create provisions a new organization with its owner admin and
// backing collection. The registry pair-insert rolls back on a
// uniqueness conflict; collection provisioning is idempotent so a
// retry after a failed attempt reuses the existing collection.
func (m *Manager) Create(ctx context.Context, orgName, email, plainPassword string) (*CreateResult, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal_error", err)
	}

	now := time.Now().UTC()
	org := &model.Organization{
		ID:             uuid.NewString(),
		Name:           model.NormalizeName(orgName),
		CollectionName: orgName,
		OwnerAdminID:   uuid.NewString(),
		CreatedAt:      now,
	}
	admin := &model.Admin{
		ID:           org.OwnerAdminID,
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
		OrgID:        org.ID,
		Role:         model.RoleOwner,
		CreatedAt:    now,
	}

	if err := m.registry.CreateOrgWithOwner(ctx, org, admin); err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicateName):
			return nil, apperr.New(apperr.Conflict, model.ErrDuplicateName.Error())
		case errors.Is(err, model.ErrDuplicateEmail):
			return nil, apperr.New(apperr.Conflict, model.ErrDuplicateEmail.Error())
		default:
			return nil, apperr.Wrap(apperr.Internal, "failed to create organization", err)
		}
	}

	if err := m.docs.Provision(ctx, org.CollectionName, org.ID); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to provision tenant collection", err)
	}

	m.log.Info("Organization created",
		zap.String("org_id", org.ID),
		zap.String("organization_name", org.Name),
		zap.String("collection_name", org.CollectionName))

	return &CreateResult{
		OrgID:          org.ID,
		Name:           org.Name,
		CollectionName: org.CollectionName,
	}, nil
}

// Get returns the organization registered under the given name.
func (m *Manager) Get(ctx context.Context, orgName string) (*model.Organization, error) {
	org, err := m.registry.FindByName(ctx, orgName)
	if err != nil {
		if errors.Is(err, model.ErrOrgNotFound) {
			return nil, apperr.New(apperr.NotFound, model.ErrOrgNotFound.Error())
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up organization", err)
	}
	return org, nil
}

// LoginResult carries the issued session token and its org context.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	OrgID       string `json:"org_id"`
	OrgName     string `json:"org_name"`
}

// Login verifies admin credentials and issues a session token scoped
// to the admin's organization. Unknown email and wrong password are
// indistinguishable to the caller.
func (m *Manager) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	admin, err := m.registry.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, apperr.New(apperr.Auth, "invalid credentials")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up admin", err)
	}

	if !password.Verify(plainPassword, admin.PasswordHash) {
		return nil, apperr.New(apperr.Auth, "invalid credentials")
	}

	var orgName string
	if org, err := m.registry.FindOrgByID(ctx, admin.OrgID); err == nil {
		orgName = org.Name
	}

	token, _, err := m.tokens.Issue(admin.ID, admin.OrgID, admin.Email, admin.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to issue token", err)
	}

	m.log.Info("Admin logged in",
		zap.String("email", admin.Email),
		zap.String("org_id", admin.OrgID))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(m.tokens.TTL().Seconds()),
		OrgID:       admin.OrgID,
		OrgName:     orgName,
	}, nil
}

// UpdateResult reports the outcome of an update, including how many
// documents a rename migrated and any non-fatal warning.
type UpdateResult struct {
	Renamed      int64
	MigratedDocs int64
	Note         string
	Warning      string
}

// Update applies admin profile changes and, when the new name differs
// from the current one, renames the organization and migrates its
// document collection.
//
// The migration copies the old collection into the target in fixed
// batches, repoints the registry in a single update only after the
// copy completes, and drops the old collection last. A copy failure
// leaves the registry on the old collection (the partial target is
// leaked for out-of-band cleanup); a drop failure after the repoint is
// a warning, not an error, because the new name is already
// authoritative.
func (m *Manager) Update(ctx context.Context, claims *jwtutil.Claims, currentName, newName, newEmail, newPassword string) (*UpdateResult, error) {
	org, unlock, err := m.lockOrg(ctx, currentName)
	if err != nil {
		return nil, err
	}
	defer unlock()

	admin, err := m.authorize(ctx, claims, org)
	if err != nil {
		return nil, err
	}

	// Profile edits first, as in the original flow: they apply even
	// when no rename is requested.
	var emailPtr, hashPtr *string
	if newEmail != "" {
		normalized := model.NormalizeEmail(newEmail)
		emailPtr = &normalized
	}
	if newPassword != "" {
		hash, err := password.Hash(newPassword)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "internal_error", err)
		}
		hashPtr = &hash
	}
	if emailPtr != nil || hashPtr != nil {
		if err := m.registry.UpdateAdmin(ctx, admin.ID, emailPtr, hashPtr); err != nil {
			if errors.Is(err, model.ErrDuplicateEmail) {
				return nil, apperr.New(apperr.Conflict, model.ErrDuplicateEmail.Error())
			}
			return nil, apperr.Wrap(apperr.Internal, "failed to update admin", err)
		}
	}

	if newName == "" || model.NormalizeName(newName) == org.Name {
		return &UpdateResult{Note: "updated admin/profile"}, nil
	}

	migrated, warning, err := m.rename(ctx, org, newName)
	if err != nil {
		return nil, err
	}

	return &UpdateResult{
		Renamed:      1,
		MigratedDocs: migrated,
		Note:         fmt.Sprintf("organization renamed and data copied (%d documents)", migrated),
		Warning:      warning,
	}, nil
}

// rename migrates the org's collection to the new name and repoints
// the registry. Caller holds the per-org lock.
func (m *Manager) rename(ctx context.Context, org *model.Organization, newName string) (int64, string, error) {
	if _, err := m.registry.FindByName(ctx, newName); err == nil {
		return 0, "", apperr.New(apperr.Conflict, "new organization name already exists")
	} else if !errors.Is(err, model.ErrOrgNotFound) {
		return 0, "", apperr.Wrap(apperr.Internal, "failed to check new name", err)
	}

	oldCollection := org.CollectionName
	newCollection := newName

	if err := m.docs.EnsureExists(ctx, newCollection); err != nil {
		return 0, "", apperr.Wrap(apperr.Internal, "failed to create target collection", err)
	}

	copyStart := time.Now()
	migrated, err := m.docs.Copy(ctx, oldCollection, newCollection)
	if err != nil {
		// Registry untouched: the old collection stays authoritative.
		// The partially-filled target is left for reconciliation.
		m.log.Error("Document copy failed, organization left unchanged",
			zap.String("org_id", org.ID),
			zap.String("old_collection", oldCollection),
			zap.String("new_collection", newCollection),
			zap.Int64("documents_copied", migrated),
			zap.Error(err))
		return 0, "", apperr.Wrap(apperr.Internal, "failed to copy tenant documents", err)
	}

	prometheus.RecordMigration(migrated, time.Since(copyStart))

	if err := m.registry.UpdateNameAndCollection(ctx, org.ID, newName, newCollection); err != nil {
		if errors.Is(err, model.ErrDuplicateName) {
			return 0, "", apperr.New(apperr.Conflict, "new organization name already exists")
		}
		return 0, "", apperr.Wrap(apperr.Internal, "failed to update organization record", err)
	}

	var warning string
	if err := m.docs.Drop(ctx, oldCollection); err != nil {
		// Non-fatal: the new name is already authoritative. The old
		// collection is orphaned until cleaned up out of band.
		warning = fmt.Sprintf("old collection %q could not be dropped", oldCollection)
		m.log.Warn("Failed to drop old collection after rename",
			zap.String("org_id", org.ID),
			zap.String("old_collection", oldCollection),
			zap.Error(err))
	}

	m.log.Info("Organization renamed",
		zap.String("org_id", org.ID),
		zap.String("new_name", model.NormalizeName(newName)),
		zap.Int64("documents_migrated", migrated))

	return migrated, warning, nil
}

// Delete removes the organization, its admins and its document
// collection. The collection is dropped first: a dangling registry
// entry pointing at missing data is a worse failure mode than an
// orphaned collection.
func (m *Manager) Delete(ctx context.Context, claims *jwtutil.Claims, orgName string) error {
	org, unlock, err := m.lockOrg(ctx, orgName)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := m.authorize(ctx, claims, org); err != nil {
		return err
	}

	if err := m.docs.Drop(ctx, org.CollectionName); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to drop tenant collection", err)
	}
	if err := m.registry.DeleteAdminsByOrg(ctx, org.ID); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to delete admins", err)
	}
	if err := m.registry.DeleteOrg(ctx, org.ID); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to delete organization", err)
	}

	m.log.Info("Organization deleted",
		zap.String("org_id", org.ID),
		zap.String("organization_name", org.Name))

	return nil
}

// lockOrg resolves the org by name, acquires its lifecycle lock and
// re-reads the record under the lock. The first lookup happens before
// the lock is held, so an operation that waited on a concurrent rename
// or delete would otherwise proceed with a stale snapshot — copying
// from a dropped collection or resurrecting deleted state. The re-read
// rejects the operation when the name no longer maps to this org.
func (m *Manager) lockOrg(ctx context.Context, name string) (*model.Organization, func(), error) {
	org, err := m.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	unlock := m.locks.lock(org.ID)

	fresh, err := m.registry.FindOrgByID(ctx, org.ID)
	if err != nil {
		unlock()
		if errors.Is(err, model.ErrOrgNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, model.ErrOrgNotFound.Error())
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "failed to look up organization", err)
	}
	if fresh.Name != model.NormalizeName(name) {
		unlock()
		return nil, nil, apperr.New(apperr.NotFound, model.ErrOrgNotFound.Error())
	}

	return fresh, unlock, nil
}

// authorize enforces the scope rule for mutating operations: the token
// must carry the target org's id, and the acting admin must still
// exist with that same org id. Both checks are required because a
// token could be replayed after the admin/org relationship changed.
func (m *Manager) authorize(ctx context.Context, claims *jwtutil.Claims, org *model.Organization) (*model.Admin, error) {
	admin, err := m.registry.FindAdminByID(ctx, claims.AdminID())
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, apperr.New(apperr.Auth, "unauthorized")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up admin", err)
	}
	if admin.OrgID != claims.OrgID {
		return nil, apperr.New(apperr.Auth, "unauthorized")
	}
	if org.ID != claims.OrgID {
		return nil, apperr.New(apperr.Authorization, "token org mismatch")
	}
	return admin, nil
}
