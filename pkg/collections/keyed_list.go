// Package collections provides the name-keyed ordered list used for build
// groups, formats and other named build items.
package collections

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateName is returned when adding an item whose name is already present
	ErrDuplicateName = errors.New("item with the same name already exists")
	// ErrEmptyName is returned when an item has no name
	ErrEmptyName = errors.New("item name is empty")
	// ErrIndexOutOfRange is returned for positional access outside the list
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Named is implemented by items stored in a KeyedList
type Named interface {
	Name() string
}

// ChangeKind tags a structural mutation of a KeyedList
type ChangeKind int

const (
	Added ChangeKind = iota
	Replaced
	Removed
	Cleared
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change describes one mutation. Index is -1 for Cleared.
type Change[T Named] struct {
	Kind    ChangeKind
	Index   int
	OldItem T
	NewItem T
	Version uint64
}

// KeyedList is an insertion-ordered collection addressable by position and by name.
// Version increases on every structural mutation.
type KeyedList[T Named] struct {
	mu          sync.RWMutex
	items       []T
	index       map[string]int
	version     uint64
	subscribers []func(Change[T])
}

// NewKeyedList creates a list holding the given items; duplicates are rejected
func NewKeyedList[T Named](items ...T) (*KeyedList[T], error) {
	l := &KeyedList[T]{}
	for _, item := range items {
		if err := l.Add(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Subscribe registers fn to receive every change after it has been applied
func (l *KeyedList[T]) Subscribe(fn func(Change[T])) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Add appends item, failing when its name is empty or already present
func (l *KeyedList[T]) Add(item T) error {
	name := item.Name()
	if name == "" {
		return ErrEmptyName
	}

	l.mu.Lock()
	if _, exists := l.index[name]; exists {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	l.items = append(l.items, item)
	l.reindex()
	change := l.record(Change[T]{Kind: Added, Index: len(l.items) - 1, NewItem: item})
	l.mu.Unlock()

	l.notify(change)
	return nil
}

// Set replaces the item with the same name in place, or appends it
func (l *KeyedList[T]) Set(item T) error {
	name := item.Name()
	if name == "" {
		return ErrEmptyName
	}

	l.mu.Lock()
	var change Change[T]
	if i, exists := l.index[name]; exists {
		old := l.items[i]
		l.items[i] = item
		change = l.record(Change[T]{Kind: Replaced, Index: i, OldItem: old, NewItem: item})
	} else {
		l.items = append(l.items, item)
		l.reindex()
		change = l.record(Change[T]{Kind: Added, Index: len(l.items) - 1, NewItem: item})
	}
	l.mu.Unlock()

	l.notify(change)
	return nil
}

// Insert places item at position i, shifting later items
func (l *KeyedList[T]) Insert(i int, item T) error {
	name := item.Name()
	if name == "" {
		return ErrEmptyName
	}

	l.mu.Lock()
	if i < 0 || i > len(l.items) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if _, exists := l.index[name]; exists {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	var zero T
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = item
	l.reindex()
	change := l.record(Change[T]{Kind: Added, Index: i, NewItem: item})
	l.mu.Unlock()

	l.notify(change)
	return nil
}

// Get returns the item with the given name
func (l *KeyedList[T]) Get(name string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i, ok := l.index[name]; ok {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// At returns the item at position i
func (l *KeyedList[T]) At(i int) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return l.items[i], nil
}

// IndexOf returns the position of name, or -1
func (l *KeyedList[T]) IndexOf(name string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

// Contains reports whether an item with name is present
func (l *KeyedList[T]) Contains(name string) bool {
	return l.IndexOf(name) >= 0
}

// Remove deletes the item with the given name
func (l *KeyedList[T]) Remove(name string) bool {
	l.mu.Lock()
	i, ok := l.index[name]
	if !ok {
		l.mu.Unlock()
		return false
	}
	change := l.removeAt(i)
	l.mu.Unlock()

	l.notify(change)
	return true
}

// RemoveAt deletes the item at position i
func (l *KeyedList[T]) RemoveAt(i int) error {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	change := l.removeAt(i)
	l.mu.Unlock()

	l.notify(change)
	return nil
}

func (l *KeyedList[T]) removeAt(i int) Change[T] {
	old := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.reindex()
	return l.record(Change[T]{Kind: Removed, Index: i, OldItem: old})
}

// Clear removes every item. The version is bumped even when the list is empty.
func (l *KeyedList[T]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.index = nil
	change := l.record(Change[T]{Kind: Cleared, Index: -1})
	l.mu.Unlock()

	l.notify(change)
}

// Len returns the number of items
func (l *KeyedList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Items returns a copy of the items in order
func (l *KeyedList[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Names returns the item names in order
func (l *KeyedList[T]) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.items))
	for i, item := range l.items {
		out[i] = item.Name()
	}
	return out
}

// Version returns the structural revision counter
func (l *KeyedList[T]) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *KeyedList[T]) reindex() {
	l.index = make(map[string]int, len(l.items))
	for i, item := range l.items {
		l.index[item.Name()] = i
	}
}

func (l *KeyedList[T]) record(c Change[T]) Change[T] {
	l.version++
	c.Version = l.version
	return c
}

func (l *KeyedList[T]) notify(c Change[T]) {
	l.mu.RLock()
	subs := make([]func(Change[T]), len(l.subscribers))
	copy(subs, l.subscribers)
	l.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
