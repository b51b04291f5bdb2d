// Package testutil provides in-memory fakes of the storage and push layers
// for service and handler tests.
package testutil

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

type pairKey struct {
	a, b uuid.UUID
}

type memData struct {
	users       map[uuid.UUID]model.User
	identities  map[uuid.UUID]model.Identity
	projects    map[uuid.UUID]model.Project
	permissions map[pairKey]model.Permission // project, user
	invites     map[pairKey]model.Invite     // user, project
	tasks       map[uuid.UUID]model.Task
	chat        []model.ChatMessage
	updates     []model.UserUpdate
}

func newMemData() *memData {
	return &memData{
		users:       make(map[uuid.UUID]model.User),
		identities:  make(map[uuid.UUID]model.Identity),
		projects:    make(map[uuid.UUID]model.Project),
		permissions: make(map[pairKey]model.Permission),
		invites:     make(map[pairKey]model.Invite),
		tasks:       make(map[uuid.UUID]model.Task),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		v.Projects = slices.Clone(v.Projects)
		c.users[k] = v
	}
	for k, v := range d.identities {
		c.identities[k] = v
	}
	for k, v := range d.projects {
		v.Members = slices.Clone(v.Members)
		c.projects[k] = v
	}
	for k, v := range d.permissions {
		c.permissions[k] = v
	}
	for k, v := range d.invites {
		c.invites[k] = v
	}
	for k, v := range d.tasks {
		c.tasks[k] = v
	}
	c.chat = slices.Clone(d.chat)
	c.updates = slices.Clone(d.updates)
	return c
}

// MemStore is an in-memory repository.Store. Transactions are serialized and
// roll back by restoring a snapshot.
type MemStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	data     *memData
	seq      int64
	failures map[string]error
}

var _ repository.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: newMemData(), failures: make(map[string]error)}
}

// FailOn makes the named operation (for example "chat.append") return err
// until cleared with a nil err.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemStore) fail(op string) error {
	return s.failures[op]
}

// now returns strictly increasing timestamps so insertion order is stable.
func (s *MemStore) now() time.Time {
	s.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemStore) Users() repository.UserStore             { return memUsers{s} }
func (s *MemStore) Identities() repository.IdentityStore     { return memIdentities{s} }
func (s *MemStore) Projects() repository.ProjectStore       { return memProjects{s} }
func (s *MemStore) Permissions() repository.PermissionStore { return memPermissions{s} }
func (s *MemStore) Invites() repository.InviteStore         { return memInvites{s} }
func (s *MemStore) Tasks() repository.TaskStore             { return memTasks{s} }
func (s *MemStore) Chat() repository.ChatStore              { return memChat{s} }
func (s *MemStore) Updates() repository.UpdateStore         { return memUpdates{s} }

// Seeding and inspection helpers. They bypass failure injection.

func (s *MemStore) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Projects == nil {
		u.Projects = model.NewIDList()
	}
	s.data.users[u.ID] = u
}

func (s *MemStore) PutProject(p model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Members == nil {
		p.Members = model.NewIDList()
	}
	s.data.projects[p.ID] = p
}

func (s *MemStore) User(id uuid.UUID) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	u.Projects = slices.Clone(u.Projects)
	return u, ok
}

func (s *MemStore) Identity(id uuid.UUID) (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.data.identities[id]
	return i, ok
}

func (s *MemStore) Project(id uuid.UUID) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.projects[id]
	p.Members = slices.Clone(p.Members)
	return p, ok
}

func (s *MemStore) Permission(projectID, userID uuid.UUID) (model.Permission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.permissions[pairKey{projectID, userID}]
	return p, ok
}

func (s *MemStore) Invite(userID, projectID uuid.UUID) (model.Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.data.invites[pairKey{userID, projectID}]
	return i, ok
}

func (s *MemStore) Task(id uuid.UUID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.tasks[id]
	return t, ok
}

// CountProjectRows counts tasks, permissions, chat messages and invites
// still referencing the project.
func (s *MemStore) CountProjectRows(projectID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.data.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	for k := range s.data.permissions {
		if k.a == projectID {
			n++
		}
	}
	for _, m := range s.data.chat {
		if m.ProjectID == projectID {
			n++
		}
	}
	for k := range s.data.invites {
		if k.b == projectID {
			n++
		}
	}
	return n
}

func (s *MemStore) ChatTexts(projectID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.data.chat {
		if m.ProjectID == projectID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (s *MemStore) UpdatesFor(userID uuid.UUID) []model.UserUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserUpdate
	for _, u := range s.data.updates {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out
}

// AllUsers and AllProjects return copies for consistency checks.
func (s *MemStore) AllUsers() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		u.Projects = slices.Clone(u.Projects)
		out = append(out, u)
	}
	return out
}

func (s *MemStore) AllProjects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Project, 0, len(s.data.projects))
	for _, p := range s.data.projects {
		p.Members = slices.Clone(p.Members)
		out = append(out, p)
	}
	return out
}

type memUsers struct{ s *MemStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.create"); err != nil {
		return err
	}
	for _, u := range r.s.data.users {
		if u.Email == strings.ToLower(user.Email) {
			return repository.ErrEmailTaken
		}
	}
	if user.Projects == nil {
		user.Projects = model.NewIDList()
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = r.s.now()
	u := *user
	u.Projects = slices.Clone(user.Projects)
	r.s.data.users[user.ID] = u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.get"); err != nil {
		return nil, err
	}
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Projects = slices.Clone(u.Projects)
	return &u, nil
}

func (r memUsers) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.GetByID(ctx, id)
}

func (r memUsers) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.list_by_project"); err != nil {
		return nil, err
	}
	var out []model.User
	for _, u := range r.s.data.users {
		if model.ContainsID(u.Projects, projectID) {
			u.Projects = slices.Clone(u.Projects)
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b model.User) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return out, nil
}

func (r memUsers) Search(_ context.Context, text string, limit int) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	text = strings.ToLower(text)
	var out []model.User
	for _, u := range r.s.data.users {
		if strings.Contains(strings.ToLower(u.Name), text) || strings.Contains(strings.ToLower(u.Email), text) {
			u.Projects = slices.Clone(u.Projects)
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b model.User) int { return cmp.Compare(a.Name, b.Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memUsers) SetProjects(_ context.Context, id uuid.UUID, projects model.IDList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.set_projects"); err != nil {
		return err
	}
	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Projects = slices.Clone(projects)
	if u.Projects == nil {
		u.Projects = model.NewIDList()
	}
	r.s.data.users[id] = u
	return nil
}

func (r memUsers) SetDeviceToken(_ context.Context, id uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.DeviceToken = token
	r.s.data.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.delete"); err != nil {
		return err
	}
	if _, ok := r.s.data.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	for k := range r.s.data.invites {
		if k.a == id {
			delete(r.s.data.invites, k)
		}
	}
	r.s.data.updates = slices.DeleteFunc(r.s.data.updates, func(u model.UserUpdate) bool { return u.UserID == id })
	delete(r.s.data.users, id)
	return nil
}

type memIdentities struct{ s *MemStore }

func (r memIdentities) Create(_ context.Context, identity *model.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity.Email = strings.ToLower(identity.Email)
	for _, i := range r.s.data.identities {
		if i.Email == identity.Email {
			return repository.ErrEmailTaken
		}
	}
	identity.CreatedAt = r.s.now()
	r.s.data.identities[identity.ID] = *identity
	return nil
}

func (r memIdentities) FindByEmail(_ context.Context, email string) (*model.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.data.identities {
		if i.Email == strings.ToLower(email) {
			return &i, nil
		}
	}
	return nil, repository.ErrIdentityNotFound
}

func (r memIdentities) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.identities[id]; !ok {
		return repository.ErrIdentityNotFound
	}
	delete(r.s.data.identities, id)
	return nil
}

type memProjects struct{ s *MemStore }

func (r memProjects) Create(_ context.Context, project *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("projects.create"); err != nil {
		return err
	}
	if project.Members == nil {
		project.Members = model.NewIDList()
	}
	project.CreatedAt = r.s.now()
	project.UpdatedAt = project.CreatedAt
	p := *project
	p.Members = slices.Clone(project.Members)
	r.s.data.projects[p.ID] = p
	return nil
}

func (r memProjects) GetByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	p.Members = slices.Clone(p.Members)
	return &p, nil
}

func (r memProjects) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return r.GetByID(ctx, id)
}

func (r memProjects) SetMembers(_ context.Context, id uuid.UUID, members model.IDList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("projects.set_members"); err != nil {
		return err
	}
	p, ok := r.s.data.projects[id]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.Members = slices.Clone(members)
	if p.Members == nil {
		p.Members = model.NewIDList()
	}
	p.UpdatedAt = r.s.now()
	r.s.data.projects[id] = p
	return nil
}

func (r memProjects) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("projects.delete"); err != nil {
		return err
	}
	if _, ok := r.s.data.projects[id]; !ok {
		return repository.ErrProjectNotFound
	}
	for k, t := range r.s.data.tasks {
		if t.ProjectID == id {
			delete(r.s.data.tasks, k)
		}
	}
	for k := range r.s.data.permissions {
		if k.a == id {
			delete(r.s.data.permissions, k)
		}
	}
	for k := range r.s.data.invites {
		if k.b == id {
			delete(r.s.data.invites, k)
		}
	}
	r.s.data.chat = slices.DeleteFunc(r.s.data.chat, func(m model.ChatMessage) bool { return m.ProjectID == id })
	delete(r.s.data.projects, id)
	return nil
}

type memPermissions struct{ s *MemStore }

func (r memPermissions) Put(_ context.Context, perm *model.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("permissions.put"); err != nil {
		return err
	}
	perm.UpdatedAt = r.s.now()
	r.s.data.permissions[pairKey{perm.ProjectID, perm.UserID}] = *perm
	return nil
}

func (r memPermissions) Ensure(_ context.Context, perm *model.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey{perm.ProjectID, perm.UserID}
	if _, ok := r.s.data.permissions[key]; ok {
		return nil
	}
	perm.UpdatedAt = r.s.now()
	r.s.data.permissions[key] = *perm
	return nil
}

func (r memPermissions) Get(_ context.Context, projectID, userID uuid.UUID) (*model.Permission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.permissions[pairKey{projectID, userID}]
	if !ok {
		return nil, repository.ErrPermissionNotFound
	}
	return &p, nil
}

func (r memPermissions) Delete(_ context.Context, projectID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("permissions.delete"); err != nil {
		return err
	}
	delete(r.s.data.permissions, pairKey{projectID, userID})
	return nil
}

func (r memPermissions) ListWithCapability(_ context.Context, projectID uuid.UUID, c model.Capability) ([]model.Permission, error) {
	if !c.Valid() {
		return nil, repository.ErrUnknownCapability
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Permission
	for k, p := range r.s.data.permissions {
		if k.a == projectID && p.Has(c) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memInvites struct{ s *MemStore }

func (r memInvites) Put(_ context.Context, invite *model.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("invites.put"); err != nil {
		return err
	}
	invite.CreatedAt = r.s.now()
	r.s.data.invites[pairKey{invite.UserID, invite.ProjectID}] = *invite
	return nil
}

func (r memInvites) Get(_ context.Context, userID, projectID uuid.UUID) (*model.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.data.invites[pairKey{userID, projectID}]
	if !ok {
		return nil, repository.ErrInviteNotFound
	}
	return &i, nil
}

func (r memInvites) ListForUser(_ context.Context, userID uuid.UUID) ([]model.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Invite
	for k, i := range r.s.data.invites {
		if k.a == userID {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(a, b model.Invite) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r memInvites) Delete(_ context.Context, userID, projectID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("invites.delete"); err != nil {
		return err
	}
	delete(r.s.data.invites, pairKey{userID, projectID})
	return nil
}

type memTasks struct{ s *MemStore }

func (r memTasks) Create(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.CreatedAt = r.s.now()
	task.UpdatedAt = task.CreatedAt
	r.s.data.tasks[task.ID] = *task
	return nil
}

func (r memTasks) GetByID(_ context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return nil, repository.ErrTaskNotFound
	}
	return &t, nil
}

func (r memTasks) Update(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	t.Name, t.Description, t.Status, t.AssignedTo = task.Name, task.Description, task.Status, task.AssignedTo
	t.UpdatedAt = r.s.now()
	r.s.data.tasks[task.ID] = t
	return nil
}

func (r memTasks) Delete(_ context.Context, projectID, taskID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tasks[taskID]
	if !ok || t.ProjectID != projectID {
		return repository.ErrTaskNotFound
	}
	delete(r.s.data.tasks, taskID)
	return nil
}

func (r memTasks) list(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range r.s.data.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (r memTasks) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(t model.Task) bool { return t.ProjectID == projectID }), nil
}

func (r memTasks) ListAssigned(_ context.Context, projectID, userID uuid.UUID) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tasks.list_assigned"); err != nil {
		return nil, err
	}
	return r.list(func(t model.Task) bool { return t.ProjectID == projectID && t.IsAssignedTo(userID) }), nil
}

func (r memTasks) Unassign(_ context.Context, projectID, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tasks.unassign"); err != nil {
		return 0, err
	}
	var n int64
	for k, t := range r.s.data.tasks {
		if t.ProjectID == projectID && t.IsAssignedTo(userID) {
			t.AssignedTo = nil
			t.UpdatedAt = r.s.now()
			r.s.data.tasks[k] = t
			n++
		}
	}
	return n, nil
}

type memChat struct{ s *MemStore }

func (r memChat) Append(_ context.Context, msg *model.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("chat.append"); err != nil {
		return err
	}
	msg.CreatedAt = r.s.now()
	r.s.data.chat = append(r.s.data.chat, *msg)
	return nil
}

func (r memChat) List(_ context.Context, projectID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range r.s.data.chat {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memUpdates struct{ s *MemStore }

func (r memUpdates) Append(_ context.Context, update *model.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("updates.append"); err != nil {
		return err
	}
	update.CreatedAt = r.s.now()
	r.s.data.updates = append(r.s.data.updates, *update)
	return nil
}

func (r memUpdates) ListForUser(_ context.Context, userID uuid.UUID) ([]model.UserUpdate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.UserUpdate
	for i := len(r.s.data.updates) - 1; i >= 0; i-- {
		if u := r.s.data.updates[i]; u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}
