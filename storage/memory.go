package storage

import (
	"context"
	"sync"

	"todos-api/domain"
)

// DefaultSeed names the todos every fresh store starts with.
var DefaultSeed = []string{"Dinner", "Dinner"}

// Memory keeps todos in an ordered in-process slice. All access is
// serialized, and callers only ever receive copies of the stored records.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	todos  []domain.Todo
}

// NewMemory returns a store seeded with DefaultSeed.
func NewMemory() *Memory {
	return NewMemoryWithSeed(DefaultSeed...)
}

// NewMemoryWithSeed returns a store holding one open todo per name, with ids
// allocated in order starting at 1.
func NewMemoryWithSeed(names ...string) *Memory {
	m := &Memory{nextID: 1, todos: make([]domain.Todo, 0, len(names))}
	for _, name := range names {
		m.todos = append(m.todos, domain.Todo{ID: m.allocateID(), Name: name})
	}
	return m
}

// allocateID must be called with mu held.
func (m *Memory) allocateID() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// indexOf must be called with mu held.
func (m *Memory) indexOf(id int64) int {
	for i := range m.todos {
		if m.todos[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns every todo in insertion order.
func (m *Memory) List(ctx context.Context) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Todo, len(m.todos))
	copy(out, m.todos)
	return out, nil
}

// Create appends an open todo with a fresh id.
func (m *Memory) Create(ctx context.Context, name string) (domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return domain.Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	todo := domain.Todo{ID: m.allocateID(), Name: name}
	m.todos = append(m.todos, todo)
	return todo, nil
}

// Rename replaces the name of the todo with the given id.
func (m *Memory) Rename(ctx context.Context, id int64, name string) (domain.Todo, error) {
	return m.update(ctx, id, func(t *domain.Todo) { t.Name = name })
}

// Toggle flips the completion flag of the todo with the given id.
func (m *Memory) Toggle(ctx context.Context, id int64) (domain.Todo, error) {
	return m.update(ctx, id, func(t *domain.Todo) { t.Done = !t.Done })
}

func (m *Memory) update(ctx context.Context, id int64, apply func(*domain.Todo)) (domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return domain.Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return domain.Todo{}, domain.ErrNotFound
	}
	apply(&m.todos[i])
	return m.todos[i], nil
}

// Delete removes the todo with the given id and returns it. The relative
// order of the remaining todos is unchanged.
func (m *Memory) Delete(ctx context.Context, id int64) (domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return domain.Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return domain.Todo{}, domain.ErrNotFound
	}
	removed := m.todos[i]
	m.todos = append(m.todos[:i], m.todos[i+1:]...)
	return removed, nil
}

// Len reports how many todos are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.todos)
}
