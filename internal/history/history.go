// Package history keeps a linear undo/redo log of reversible mutations
// applied to an entity collection. Records are immutable once appended;
// undo/redo replay or invert their effect and move a cursor, never rewrite
// the log. Branching histories are not supported: appending while undone
// discards the redo tail.
package history

import "oneflow-cli/internal/collection"

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Record carries enough information to invert itself. Previous is only
// meaningful for OpUpdate.
type Record[E collection.Entity] struct {
	Op       Op
	Entity   E
	Previous E
}

type Log[E collection.Entity] struct {
	col     *collection.Collection[E]
	records []Record[E]
	cursor  int // index of the last applied record; -1 when fully undone
}

func NewLog[E collection.Entity](col *collection.Collection[E]) *Log[E] {
	return &Log[E]{col: col, cursor: -1}
}

// Append records a mutation whose forward effect has already been applied to
// the collection. Any redo tail beyond the cursor is truncated.
func (l *Log[E]) Append(r Record[E]) {
	l.records = append(l.records[:l.cursor+1], r)
	l.cursor = len(l.records) - 1
}

func (l *Log[E]) CanUndo() bool { return l.cursor >= 0 }

func (l *Log[E]) CanRedo() bool { return l.cursor < len(l.records)-1 }

func (l *Log[E]) Len() int { return len(l.records) }

func (l *Log[E]) Cursor() int { return l.cursor }

// Clear drops all records, e.g. when the collection is rebased from a fresh
// server fetch and past inversions no longer describe reality.
func (l *Log[E]) Clear() {
	l.records = nil
	l.cursor = -1
}

// Undo applies the inverse of the record at the cursor to the collection and
// steps the cursor back. Returns false when there is nothing to undo. A
// collection error leaves the cursor unchanged: the log is out of sync with
// the collection and must not silently corrupt it further.
func (l *Log[E]) Undo() (Record[E], bool, error) {
	if !l.CanUndo() {
		var zero Record[E]
		return zero, false, nil
	}
	r := l.records[l.cursor]
	var err error
	switch r.Op {
	case OpCreate:
		_, err = l.col.Remove(r.Entity.EntityID())
	case OpUpdate:
		err = l.col.Replace(r.Previous)
	case OpDelete:
		err = l.col.Insert(r.Entity)
	}
	if err != nil {
		var zero Record[E]
		return zero, false, err
	}
	l.cursor--
	return r, true, nil
}

// Redo reapplies the forward effect of the record after the cursor.
func (l *Log[E]) Redo() (Record[E], bool, error) {
	if !l.CanRedo() {
		var zero Record[E]
		return zero, false, nil
	}
	r := l.records[l.cursor+1]
	var err error
	switch r.Op {
	case OpCreate:
		err = l.col.Insert(r.Entity)
	case OpUpdate:
		err = l.col.Replace(r.Entity)
	case OpDelete:
		_, err = l.col.Remove(r.Entity.EntityID())
	}
	if err != nil {
		var zero Record[E]
		return zero, false, err
	}
	l.cursor++
	return r, true, nil
}
