package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/travelcrm/travel-crm/internal/auth"
	"github.com/travelcrm/travel-crm/internal/core/events"
)

const testSecret = "test-secret-key-that-is-long-enough-0123456789"

func fastHasher() *auth.Argon2Hasher {
	return auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

// fakeUsers implements auth.UserRepository in memory.
type fakeUsers struct {
	mu     sync.Mutex
	users  map[string]*auth.User
	nextID int64
	err    error
	saves  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*auth.User), nextID: 1}
}

func (f *fakeUsers) Add(u *auth.User) *auth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.users[u.Email] = u
	return u
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(ctx context.Context, u *auth.User) error {
	if _, err := f.FindByEmail(ctx, u.Email); err == nil {
		return auth.ErrEmailTaken
	}
	f.Add(u)
	return nil
}

func (f *fakeUsers) Save(ctx context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.Email] = &cp
	f.saves++
	return nil
}

// fakeTokenStore implements auth.TokenStore in memory.
type fakeTokenStore struct {
	mu        sync.Mutex
	refresh   map[string]*auth.RefreshToken
	blacklist map[string]auth.BlacklistEntry
	nextID    int64
	err       error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		refresh:   make(map[string]*auth.RefreshToken),
		blacklist: make(map[string]auth.BlacklistEntry),
		nextID:    1,
	}
}

func (f *fakeTokenStore) CreateRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	t.ID = f.nextID
	f.nextID++
	cp := *t
	f.refresh[t.TokenHash] = &cp
	return nil
}

func (f *fakeTokenStore) FindRefreshToken(ctx context.Context, hash string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.refresh[hash]
	if !ok {
		return nil, auth.ErrRefreshTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenStore) RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[hash]
	if !ok || t.IsRevoked {
		return auth.ErrRefreshTokenRevoked
	}
	t.IsRevoked = true
	t.RevokedAt = &at
	return nil
}

// lockstepStore holds every FindRefreshToken caller until all of them have
// read, so concurrent refreshes race on the revoke.
type lockstepStore struct {
	*fakeTokenStore
	reads sync.WaitGroup
}

func newLockstepStore(store *fakeTokenStore, callers int) *lockstepStore {
	s := &lockstepStore{fakeTokenStore: store}
	s.reads.Add(callers)
	return s
}

func (s *lockstepStore) FindRefreshToken(ctx context.Context, hash string) (*auth.RefreshToken, error) {
	t, err := s.fakeTokenStore.FindRefreshToken(ctx, hash)
	s.reads.Done()
	s.reads.Wait()
	return t, err
}

func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.refresh {
		if t.UserID == userID && !t.IsRevoked {
			t.IsRevoked = true
			t.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeTokenStore) Blacklist(ctx context.Context, entry auth.BlacklistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[entry.JTI] = entry
	return nil
}

func (f *fakeTokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.blacklist[jti]
	return ok, nil
}

func (f *fakeTokenStore) activeRefreshTokens(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.refresh {
		if t.UserID == userID && !t.IsRevoked {
			n++
		}
	}
	return n
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

func ctx() context.Context {
	return context.Background()
}
