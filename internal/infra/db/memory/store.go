// Package memory is a process-local profile.Store. Transactions work on a
// copy of the data that replaces the live copy on commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
)

type data struct {
	analyses map[string]profile.RepositoryAnalysis // key: username/name
	profiles map[string]profile.UserProfile
}

func (d *data) clone() *data {
	c := &data{
		analyses: make(map[string]profile.RepositoryAnalysis, len(d.analyses)),
		profiles: make(map[string]profile.UserProfile, len(d.profiles)),
	}
	for k, v := range d.analyses {
		c.analyses[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	live *data
}

func New() *Store {
	return &Store{live: &data{
		analyses: map[string]profile.RepositoryAnalysis{},
		profiles: map[string]profile.UserProfile{},
	}}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx profile.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.live.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &tx{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.live = work
	s.mu.Unlock()
	return nil
}

func (s *Store) Analyses() profile.AnalysisRepository { return &analyses{src: s.snapshot} }
func (s *Store) Profiles() profile.ProfileRepository  { return &profiles{src: s.snapshot} }
func (s *Store) Ping(context.Context) error           { return nil }
func (s *Store) Close() error                         { return nil }

// snapshot hands out the live data under the read lock. Writes outside a
// transaction go straight to the live maps.
func (s *Store) snapshot(write bool, fn func(d *data)) {
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.live)
}

type tx struct{ d *data }

func (t *tx) direct(_ bool, fn func(d *data)) { fn(t.d) }

func (t *tx) Analyses() profile.AnalysisRepository { return &analyses{src: t.direct} }
func (t *tx) Profiles() profile.ProfileRepository  { return &profiles{src: t.direct} }

type source func(write bool, fn func(d *data))

type analyses struct{ src source }

func key(username, name string) string {
	return profile.Canonical(username) + "/" + profile.Canonical(name)
}

func (r *analyses) Get(ctx context.Context, username, name string) (*profile.RepositoryAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		out *profile.RepositoryAnalysis
		ok  bool
	)
	r.src(false, func(d *data) {
		var a profile.RepositoryAnalysis
		if a, ok = d.analyses[key(username, name)]; ok {
			out = copyAnalysis(a)
		}
	})
	if !ok {
		return nil, profile.ErrNotFound
	}
	return out, nil
}

func (r *analyses) Save(ctx context.Context, a *profile.RepositoryAnalysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.Username, a.Name = profile.Canonical(a.Username), profile.Canonical(a.Name)
	r.src(true, func(d *data) {
		k := key(a.Username, a.Name)
		if prev, ok := d.analyses[k]; ok {
			// upsert keeps the original identity
			a.ID, a.CreatedAt = prev.ID, prev.CreatedAt
		}
		d.analyses[k] = *copyAnalysis(*a)
	})
	return nil
}

func (r *analyses) ListByUser(ctx context.Context, username string, offset, limit int) ([]*profile.RepositoryAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	username = profile.Canonical(username)
	var all []*profile.RepositoryAnalysis
	r.src(false, func(d *data) {
		for _, a := range d.analyses {
			if a.Username == username {
				all = append(all, copyAnalysis(a))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*profile.RepositoryAnalysis{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *analyses) CountByUser(ctx context.Context, username string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	username = profile.Canonical(username)
	var n int64
	r.src(false, func(d *data) {
		for _, a := range d.analyses {
			if a.Username == username {
				n++
			}
		}
	})
	return n, nil
}

type profiles struct{ src source }

func (r *profiles) Get(ctx context.Context, username string) (*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		p  profile.UserProfile
		ok bool
	)
	r.src(false, func(d *data) { p, ok = d.profiles[profile.Canonical(username)] })
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (r *profiles) Save(ctx context.Context, p *profile.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Username = profile.Canonical(p.Username)
	r.src(true, func(d *data) {
		if prev, ok := d.profiles[p.Username]; ok {
			p.ID, p.CreatedAt = prev.ID, prev.CreatedAt
		}
		d.profiles[p.Username] = *p
	})
	return nil
}

func copyAnalysis(a profile.RepositoryAnalysis) *profile.RepositoryAnalysis {
	if a.LatestCommit != nil {
		t := *a.LatestCommit
		a.LatestCommit = &t
	}
	return &a
}
