package tenant

import (
	"context"
	"sync"
	"time"

	"tenant-service/internal/model"
)

// fakeRegistry is an in-memory Registry honoring the same contract as
// the GORM-backed store: unique normalized names/emails, and a
// compensating delete of the org row when the admin insert conflicts.
type fakeRegistry struct {
	mu     sync.Mutex
	orgs   map[string]*model.Organization // by id
	admins map[string]*model.Admin        // by id

	updateNameErr error
	deleteOrgErr  error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		orgs:   make(map[string]*model.Organization),
		admins: make(map[string]*model.Admin),
	}
}

func (r *fakeRegistry) nameTaken(name string) bool {
	for _, o := range r.orgs {
		if o.Name == name {
			return true
		}
	}
	return false
}

func (r *fakeRegistry) emailTaken(email string) bool {
	for _, a := range r.admins {
		if a.Email == email {
			return true
		}
	}
	return false
}

func (r *fakeRegistry) CreateOrgWithOwner(_ context.Context, org *model.Organization, admin *model.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(org.Name) {
		return model.ErrDuplicateName
	}
	orgCopy := *org
	r.orgs[org.ID] = &orgCopy

	if r.emailTaken(admin.Email) {
		delete(r.orgs, org.ID) // compensating rollback
		return model.ErrDuplicateEmail
	}
	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	return nil
}

func (r *fakeRegistry) FindByName(_ context.Context, name string) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	normalized := model.NormalizeName(name)
	for _, o := range r.orgs {
		if o.Name == normalized {
			cp := *o
			return &cp, nil
		}
	}
	return nil, model.ErrOrgNotFound
}

func (r *fakeRegistry) FindOrgByID(_ context.Context, id string) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orgs[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, model.ErrOrgNotFound
}

func (r *fakeRegistry) FindAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	normalized := model.NormalizeEmail(email)
	for _, a := range r.admins {
		if a.Email == normalized {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrAdminNotFound
}

func (r *fakeRegistry) FindAdminByID(_ context.Context, id string) (*model.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, model.ErrAdminNotFound
}

func (r *fakeRegistry) UpdateNameAndCollection(_ context.Context, orgID, newName, newCollection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateNameErr != nil {
		return r.updateNameErr
	}
	org, ok := r.orgs[orgID]
	if !ok {
		return model.ErrOrgNotFound
	}
	normalized := model.NormalizeName(newName)
	for id, o := range r.orgs {
		if id != orgID && o.Name == normalized {
			return model.ErrDuplicateName
		}
	}
	org.Name = normalized
	org.CollectionName = newCollection
	return nil
}

func (r *fakeRegistry) UpdateAdmin(_ context.Context, adminID string, email, passwordHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[adminID]
	if !ok {
		return model.ErrAdminNotFound
	}
	if email != nil {
		normalized := model.NormalizeEmail(*email)
		for id, a := range r.admins {
			if id != adminID && a.Email == normalized {
				return model.ErrDuplicateEmail
			}
		}
		admin.Email = normalized
	}
	if passwordHash != nil {
		admin.PasswordHash = *passwordHash
	}
	return nil
}

func (r *fakeRegistry) DeleteAdminsByOrg(_ context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.admins {
		if a.OrgID == orgID {
			delete(r.admins, id)
		}
	}
	return nil
}

func (r *fakeRegistry) DeleteOrg(_ context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteOrgErr != nil {
		return r.deleteOrgErr
	}
	delete(r.orgs, orgID)
	return nil
}

func (r *fakeRegistry) adminsForOrg(orgID string) []*model.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Admin
	for _, a := range r.admins {
		if a.OrgID == orgID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

// fakeDocStore is an in-memory DocumentStore. Documents are opaque
// values; the sentinel is a map with "_meta": true.
type fakeDocStore struct {
	mu          sync.Mutex
	collections map[string][]interface{}

	copyErr  error
	dropErr  error
	copyHook func() // runs before a copy, outside the store lock
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{collections: make(map[string][]interface{})}
}

func (s *fakeDocStore) Provision(_ context.Context, name, orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil
	}
	s.collections[name] = []interface{}{
		map[string]interface{}{"_meta": true, "org_id": orgID, "created_at": time.Now().UTC()},
	}
	return nil
}

func (s *fakeDocStore) EnsureExists(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = []interface{}{}
	}
	return nil
}

func (s *fakeDocStore) Copy(_ context.Context, src, dst string) (int64, error) {
	s.mu.Lock()
	hook := s.copyHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copyErr != nil {
		// Simulate a partial copy failing midway.
		if docs, ok := s.collections[src]; ok && len(docs) > 0 {
			s.collections[dst] = append(s.collections[dst], docs[0])
		}
		return 0, s.copyErr
	}
	docs := s.collections[src]
	s.collections[dst] = append(s.collections[dst], docs...)
	return int64(len(docs)), nil
}

func (s *fakeDocStore) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropErr != nil {
		return s.dropErr
	}
	delete(s.collections, name)
	return nil
}

func (s *fakeDocStore) insert(name string, docs ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = append(s.collections[name], docs...)
}

func (s *fakeDocStore) docs(name string) ([]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	out := make([]interface{}, len(docs))
	copy(out, docs)
	return out, true
}
