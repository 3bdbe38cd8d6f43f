// Package taxonomy translates the gateway's free-form status tokens into the
// closed status enumerations stored with orders and transactions.
package taxonomy

import "strings"

// Entry is one member of a status enumeration.
type Entry[T ~int] struct {
	Value       T
	Name        string
	Description string
}

// Code is the numeric value persisted for the member.
func (e Entry[T]) Code() int {
	return int(e.Value)
}

// Table is an ordered, immutable list of enumeration members.
type Table[T ~int] struct {
	kind    string
	entries []Entry[T]
}

func NewTable[T ~int](kind string, entries []Entry[T]) *Table[T] {
	owned := make([]Entry[T], len(entries))
	copy(owned, entries)
	return &Table[T]{kind: kind, entries: owned}
}

func (t *Table[T]) Kind() string {
	return t.kind
}

// Lookup resolves token case-insensitively, first against member names and
// then against member descriptions. When two members share a description the
// one declared first wins. A blank or unknown token reports false.
func (t *Table[T]) Lookup(token string) (Entry[T], bool) {
	if strings.TrimSpace(token) == "" {
		return Entry[T]{}, false
	}

	for _, e := range t.entries {
		if strings.EqualFold(e.Name, token) {
			return e, true
		}
	}

	for _, e := range t.entries {
		if strings.EqualFold(e.Description, token) {
			return e, true
		}
	}

	return Entry[T]{}, false
}

// Get returns the member holding value.
func (t *Table[T]) Get(value T) (Entry[T], bool) {
	for _, e := range t.entries {
		if e.Value == value {
			return e, true
		}
	}
	return Entry[T]{}, false
}

func (t *Table[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(t.entries))
	copy(out, t.entries)
	return out
}
