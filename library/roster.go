package library

import (
	"fmt"
	"log/slog"
)

// Roster is the in-memory collection of members, kept in step with the
// members file.
type Roster struct {
	repo    *fileRepository[*Member]
	ids     *IDAllocator
	members []*Member
	log     *slog.Logger
}

// OpenRoster loads every member stored at path.
func OpenRoster(path string, ids *IDAllocator, log *slog.Logger) (*Roster, error) {
	r := &Roster{
		repo: newFileRepository[*Member](path, memberCodec{log: log}, func(m *Member) int { return m.ID }, log),
		ids:  ids,
		log:  log,
	}
	// Clamp warnings belong to the load, not to every later rewrite.
	r.repo.match = memberCodec{}
	members, err := r.repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	for _, m := range members {
		if ids.InUse(m.ID) {
			log.Warn("duplicate member id in file", "member", m.ID)
		}
		ids.Reserve(m.ID)
	}
	r.members = members
	log.Debug("roster loaded", "path", path, "members", len(members))
	return r, nil
}

// Add registers a new member of the given kind and appends it to the file.
func (r *Roster) Add(kind MemberKind, name string) (*Member, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: member type %d", ErrInvalidInput, int(kind))
	}
	id, err := r.ids.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocate member id: %w", err)
	}
	m := NewMember(id, name, kind)
	if err := r.repo.AppendOne(m); err != nil {
		return nil, err
	}
	r.members = append(r.members, m)
	return m, nil
}

func (r *Roster) FindByID(id int) *Member {
	for _, m := range r.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// PersistUpdate rewrites the stored record for m. Members sharing an id each
// keep their own line.
func (r *Roster) PersistUpdate(m *Member) error {
	nth := occurrence(r.members, m, r.repo.key)
	if err := r.repo.RewriteOne(m, nth); err != nil {
		return fmt.Errorf("persist member %d: %w", m.ID, err)
	}
	return nil
}

func (r *Roster) All() []*Member {
	return append([]*Member(nil), r.members...)
}

// Save rewrites the whole members file from memory.
func (r *Roster) Save() error {
	if err := r.repo.RewriteAll(r.members); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	return nil
}
