// Package store holds the observable, ordered collections the client shows:
// issues and users. Collections keep insertion order and unique membership
// by server id, and notify subscribers after every mutation.
//
// Mutations are expected to come from the UI loop only; the internal lock
// lets other goroutines take consistent snapshots.
package store

import "sync"

// ChangeKind describes a mutation.
type ChangeKind int

const (
	// Replaced means the whole content was swapped.
	Replaced ChangeKind = iota
	// Added means one element was appended.
	Added
	// Updated means one element was replaced in place.
	Updated
)

func (k ChangeKind) String() string {
	switch k {
	case Replaced:
		return "replaced"
	case Added:
		return "added"
	default:
		return "updated"
	}
}

// Change is delivered to listeners after a mutation. Items holds the
// affected elements: the full content for Replaced, one element otherwise.
type Change[T any] struct {
	Kind  ChangeKind
	Index int
	Items []T
}

// Listener observes a collection.
type Listener[T any] func(Change[T])

// Keyed is implemented by elements that may carry a server id.
type Keyed interface {
	Key() (int, bool)
}

// Collection is an ordered list of T with unique membership by Key once a
// key is assigned. Elements without a key are always appended.
type Collection[T Keyed] struct {
	mu        sync.RWMutex
	items     []T
	listeners map[int]Listener[T]
	nextID    int
}

// NewCollection returns an empty collection.
func NewCollection[T Keyed]() *Collection[T] {
	return &Collection[T]{listeners: make(map[int]Listener[T])}
}

// Subscribe registers l and returns a func that removes it.
func (c *Collection[T]) Subscribe(l Listener[T]) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// ReplaceAll swaps the content for items in one step. Later duplicates of a
// key overwrite the earlier element but keep its position.
func (c *Collection[T]) ReplaceAll(items []T) {
	c.mu.Lock()
	next := make([]T, 0, len(items))
	pos := make(map[int]int, len(items))
	for _, it := range items {
		if k, ok := it.Key(); ok {
			if i, seen := pos[k]; seen {
				next[i] = it
				continue
			}
			pos[k] = len(next)
		}
		next = append(next, it)
	}
	c.items = next
	snapshot := append([]T(nil), next...)
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, Change[T]{Kind: Replaced, Items: snapshot})
}

// Append adds item at the end, or replaces the element with the same key in
// place. It reports whether a new element was added.
func (c *Collection[T]) Append(item T) bool {
	c.mu.Lock()
	change := Change[T]{Kind: Added, Items: []T{item}}
	if i := c.indexLocked(item); i >= 0 {
		c.items[i] = item
		change.Kind, change.Index = Updated, i
	} else {
		c.items = append(c.items, item)
		change.Index = len(c.items) - 1
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, change)
	return change.Kind == Added
}

// Update applies fn to the element with key k and stores the result. It
// reports whether such an element exists.
func (c *Collection[T]) Update(k int, fn func(T) T) bool {
	c.mu.Lock()
	i := c.indexOfKeyLocked(k)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items[i] = fn(c.items[i])
	change := Change[T]{Kind: Updated, Index: i, Items: []T{c.items[i]}}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, change)
	return true
}

// Get returns the element with key k.
func (c *Collection[T]) Get(k int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOfKeyLocked(k); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the content in order.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of elements.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Filter returns, in order, the elements for which keep returns true. A nil
// keep returns every element.
func (c *Collection[T]) Filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if keep == nil || keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Any reports whether some element satisfies pred.
func (c *Collection[T]) Any(pred func(T) bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if pred(it) {
			return true
		}
	}
	return false
}

func (c *Collection[T]) indexLocked(item T) int {
	k, ok := item.Key()
	if !ok {
		return -1
	}
	return c.indexOfKeyLocked(k)
}

func (c *Collection[T]) indexOfKeyLocked(k int) int {
	for i, it := range c.items {
		if ik, ok := it.Key(); ok && ik == k {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) listenersLocked() []Listener[T] {
	out := make([]Listener[T], 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if l, ok := c.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify[T any](listeners []Listener[T], change Change[T]) {
	for _, l := range listeners {
		l(change)
	}
}
