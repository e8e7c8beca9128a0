// Package planner owns the in-memory workspaces, projects and tasks of the
// signed-in user and keeps them consistent with the document store.
//
// Every mutation is applied locally first and then persisted. When the
// store rejects a write the local change is rolled back, unless a later
// mutation has already replaced the entity.
package planner

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tgienger/plan/internal/ident"
	"github.com/tgienger/plan/internal/models"
)

// LastWorkspaceKey is the preference remembering the last selected workspace
const LastWorkspaceKey = "last_workspace_id"

// DefaultWorkspaceName names the workspace created for a new user
const DefaultWorkspaceName = "Workspace"

// Gateway is the per-user document store
type Gateway interface {
	SaveItem(ctx context.Context, uid string, item models.Item) error
	SaveWorkspace(ctx context.Context, uid string, ws models.Workspace) error
	DeleteItem(ctx context.Context, uid, itemID string) error
	DeleteWorkspaceAndContents(ctx context.Context, uid, workspaceID string) ([]string, error)
	LoadItems(ctx context.Context, uid string) ([]models.Item, error)
	LoadWorkspaces(ctx context.Context, uid string) ([]models.Workspace, error)
}

// Preferences is the local key/value store for per-user settings
type Preferences interface {
	GetSetting(ctx context.Context, uid, key string) (string, error)
	SetSetting(ctx context.Context, uid, key, value string) error
	DeleteSetting(ctx context.Context, uid, key string) error
}

// Option configures a Planner
type Option func(*Planner)

// WithIDs replaces the identifier generator
func WithIDs(newID func() string) Option {
	return func(p *Planner) { p.newID = newID }
}

// WithToday replaces the clock used for default start dates
func WithToday(today func() string) Option {
	return func(p *Planner) { p.today = today }
}

// WithOnChange registers a callback run after every committed change,
// outside the planner lock
func WithOnChange(fn func(version uint64)) Option {
	return func(p *Planner) { p.onChange = fn }
}

// Planner is the entity model of one signed-in user
type Planner struct {
	gw       Gateway
	prefs    Preferences
	newID    func() string
	today    func() string
	onChange func(uint64)
	writes   *writeQueue

	mu         sync.Mutex
	uid        string
	epoch      uint64
	version    uint64
	items      []models.Item
	workspaces []models.Workspace
	current    string
}

func New(gw Gateway, prefs Preferences, opts ...Option) *Planner {
	p := &Planner{
		gw:     gw,
		prefs:  prefs,
		newID:  ident.New,
		today:  models.Today,
		writes: newWriteQueue(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns a deep copy of the current state. Workspaces are
// ordered by name.
func (p *Planner) Snapshot() models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := models.Snapshot{
		UID:                p.uid,
		Items:              slices.Clone(p.items),
		Workspaces:         make([]models.Workspace, len(p.workspaces)),
		CurrentWorkspaceID: p.current,
		Version:            p.version,
	}
	for i, ws := range p.workspaces {
		snap.Workspaces[i] = ws.Clone()
	}
	slices.SortStableFunc(snap.Workspaces, byName)
	return snap
}

// Version increases after every committed change
func (p *Planner) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// CurrentWorkspaceID returns the active workspace id
func (p *Planner) CurrentWorkspaceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// CheckIntegrity reports tasks whose parent project is missing
func (p *Planner) CheckIntegrity() []DataIntegrityWarning {
	p.mu.Lock()
	defer p.mu.Unlock()

	var warnings []DataIntegrityWarning
	for _, it := range p.items {
		if !it.IsTask() {
			continue
		}
		if parent, ok := p.findItem(it.ParentID); !ok || !parent.IsProject() {
			warnings = append(warnings, DataIntegrityWarning{TaskID: it.ID, ParentID: it.ParentID})
		}
	}
	return warnings
}

// commit bumps the version; mu must be held. The returned func notifies
// the change listener and must be called after unlocking.
func (p *Planner) commit() func() {
	p.version++
	v := p.version
	fn := p.onChange
	return func() {
		if fn != nil {
			fn(v)
		}
	}
}

func (p *Planner) findItem(id string) (models.Item, bool) {
	if i := p.itemIndex(id); i >= 0 {
		return p.items[i], true
	}
	return models.Item{}, false
}

func (p *Planner) itemIndex(id string) int {
	return slices.IndexFunc(p.items, func(it models.Item) bool { return it.ID == id })
}

func (p *Planner) workspaceIndex(id string) int {
	return slices.IndexFunc(p.workspaces, func(ws models.Workspace) bool { return ws.ID == id })
}

func byName(a, b models.Workspace) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
}

// defaultWorkspace is the workspace with the smallest name; mu must be held
func (p *Planner) defaultWorkspace() (models.Workspace, bool) {
	if len(p.workspaces) == 0 {
		return models.Workspace{}, false
	}
	return slices.MinFunc(p.workspaces, byName), true
}

func (p *Planner) rememberWorkspace(ctx context.Context, uid, id string) {
	if p.prefs == nil || uid == "" {
		return
	}
	if err := p.prefs.SetSetting(ctx, uid, LastWorkspaceKey, id); err != nil {
		slog.Warn("failed to remember workspace", "uid", uid, "workspace", id, "err", err)
	}
}
