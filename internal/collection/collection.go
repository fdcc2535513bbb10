package collection

import "fmt"

// Entity is anything with a stable server-assigned identifier.
type Entity interface {
	EntityID() string
}

type ConflictError struct {
	Kind string
	ID   string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Kind, e.ID)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Collection is the in-memory cache of server truth for one entity type.
// Insert/Replace/Remove are the only write path; callers (sessions, the
// history log) are responsible for any event logging. Not safe for
// concurrent use; the engine runs on a single event loop.
type Collection[E Entity] struct {
	kind  string
	items []E
	byID  map[string]int
}

func New[E Entity](kind string) *Collection[E] {
	return &Collection[E]{kind: kind, byID: map[string]int{}}
}

func (c *Collection[E]) Kind() string { return c.kind }

func (c *Collection[E]) Len() int { return len(c.items) }

// List returns the entities in insertion order. The slice is a copy; the
// backing array is never shared with callers.
func (c *Collection[E]) List() []E {
	out := make([]E, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[E]) Get(id string) (E, bool) {
	if i, ok := c.byID[id]; ok {
		return c.items[i], true
	}
	var zero E
	return zero, false
}

// Reset replaces the whole collection from a fresh list fetch. Callers
// treating this as a rebase must clear any history that refers to the old
// contents.
func (c *Collection[E]) Reset(items []E) {
	c.items = make([]E, 0, len(items))
	c.byID = make(map[string]int, len(items))
	for _, e := range items {
		id := e.EntityID()
		if _, dup := c.byID[id]; dup {
			continue
		}
		c.byID[id] = len(c.items)
		c.items = append(c.items, e)
	}
}

func (c *Collection[E]) Insert(e E) error {
	id := e.EntityID()
	if _, ok := c.byID[id]; ok {
		return ConflictError{Kind: c.kind, ID: id}
	}
	c.byID[id] = len(c.items)
	c.items = append(c.items, e)
	return nil
}

func (c *Collection[E]) Replace(e E) error {
	id := e.EntityID()
	i, ok := c.byID[id]
	if !ok {
		return NotFoundError{Kind: c.kind, ID: id}
	}
	c.items[i] = e
	return nil
}

func (c *Collection[E]) Remove(id string) (E, error) {
	i, ok := c.byID[id]
	if !ok {
		var zero E
		return zero, NotFoundError{Kind: c.kind, ID: id}
	}
	removed := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.byID, id)
	for j := i; j < len(c.items); j++ {
		c.byID[c.items[j].EntityID()] = j
	}
	return removed, nil
}
