package users

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepository keeps users in process memory. Writes are serialized and
// the uniqueness check happens inside the same critical section as the write.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]int64 // lowercased email -> id
	order   []int64
}

// NewMemoryRepository returns an empty repository; ids start at 1.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]int64),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[emailKey(user.Email)]; taken {
		return nil, ErrDuplicateEmail
	}

	r.nextID++
	stored := *user
	stored.ID = r.nextID
	r.byID[stored.ID] = &stored
	r.byEmail[emailKey(stored.Email)] = stored.ID
	r.order = append(r.order, stored.ID)

	out := stored
	return &out, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// List returns users in insertion order.
func (r *MemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return nil, ErrNotFound
	}
	key := emailKey(user.Email)
	if owner, taken := r.byEmail[key]; taken && owner != user.ID {
		return nil, ErrDuplicateEmail
	}

	delete(r.byEmail, emailKey(current.Email))
	r.byEmail[key] = user.ID
	stored := *user
	r.byID[user.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, emailKey(u.Email))
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[emailKey(email)]
	return ok, nil
}

func emailKey(email string) string {
	return strings.ToLower(email)
}
