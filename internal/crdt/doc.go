// Package crdt implements a Logoot-style conflict-free ordered sequence
// of characters. Every atom carries a dense, totally ordered position
// identifier, so insertions and deletions from concurrent sites merge to
// the same text regardless of arrival order.
package crdt

import (
	"fmt"
	"sort"
	"strings"
)

// Seed pids are spaced out so early edits between seeded atoms can stay
// at the top level.
const seedStride = 16

type atom struct {
	pid   Pid
	value rune
}

// Doc is a replicated text document. It is not safe for concurrent use;
// callers serialize access (one mutex per live document).
type Doc struct {
	atoms []atom
	tombs map[string]struct{}
	rev   uint64
}

func NewDoc() *Doc {
	return &Doc{tombs: make(map[string]struct{})}
}

// SeedText initializes an empty doc with text loaded from storage. Seeded
// atoms do not advance the revision: a document that is only ever loaded
// has nothing worth persisting.
func (d *Doc) SeedText(s, site string) error {
	if len(d.atoms) > 0 || len(d.tombs) > 0 {
		return fmt.Errorf("seed of non-empty doc")
	}
	runes := []rune(s)
	d.atoms = make([]atom, len(runes))
	for i, r := range runes {
		d.atoms[i] = atom{
			pid:   Pid{Seg{Pos: uint32(i+1) * seedStride, Site: site}},
			value: r,
		}
	}
	return nil
}

// Apply merges a single op. It is idempotent and total over decoded ops:
// duplicate inserts, inserts of already-deleted atoms, and deletes of
// unknown atoms are all no-ops. A delete that arrives before its insert
// leaves a tombstone that suppresses the insert later.
func (d *Doc) Apply(op Op) error {
	switch op := op.(type) {
	case *Insert:
		key := op.Pid.Encode()
		if _, dead := d.tombs[key]; dead {
			return nil
		}
		i := d.search(op.Pid)
		if i < len(d.atoms) && d.atoms[i].pid.Compare(op.Pid) == 0 {
			return nil
		}
		d.atoms = append(d.atoms, atom{})
		copy(d.atoms[i+1:], d.atoms[i:])
		d.atoms[i] = atom{pid: op.Pid, value: op.Value}
		d.rev++
	case *Delete:
		key := op.Pid.Encode()
		if _, dead := d.tombs[key]; dead {
			return nil
		}
		d.tombs[key] = struct{}{}
		i := d.search(op.Pid)
		if i < len(d.atoms) && d.atoms[i].pid.Compare(op.Pid) == 0 {
			d.atoms = append(d.atoms[:i], d.atoms[i+1:]...)
		}
		d.rev++
	default:
		return fmt.Errorf("unexpected op type %T", op)
	}
	return nil
}

// Text returns the current document text.
func (d *Doc) Text() string {
	var b strings.Builder
	b.Grow(len(d.atoms))
	for _, a := range d.atoms {
		b.WriteRune(a.value)
	}
	return b.String()
}

// Len returns the number of live atoms.
func (d *Doc) Len() int {
	return len(d.atoms)
}

// Rev advances on every effective mutation.
func (d *Doc) Rev() uint64 {
	return d.rev
}

// Snapshot encodes the full live state as insert ops. Applying them to an
// empty doc reconstructs the text, pids included.
func (d *Doc) Snapshot() []string {
	strs := make([]string, len(d.atoms))
	for i, a := range d.atoms {
		strs[i] = (&Insert{Pid: a.pid, Value: a.value}).Encode()
	}
	return strs
}

// InsertAt allocates pids for text at the given index, applies the
// resulting ops and returns them for broadcast.
func (d *Doc) InsertAt(index int, text, site string) ([]Op, error) {
	if index < 0 || index > len(d.atoms) {
		return nil, fmt.Errorf("insert index %d out of range [0,%d]", index, len(d.atoms))
	}
	var left, right Pid
	if index > 0 {
		left = d.atoms[index-1].pid
	}
	if index < len(d.atoms) {
		right = d.atoms[index].pid
	}
	ops := make([]Op, 0, len(text))
	for _, r := range text {
		pid := PidBetween(left, right, site)
		op := &Insert{Pid: pid, Value: r}
		if err := d.Apply(op); err != nil {
			return nil, err
		}
		ops = append(ops, op)
		left = pid
	}
	return ops, nil
}

// DeleteAt removes n atoms starting at index, applies the resulting ops
// and returns them for broadcast.
func (d *Doc) DeleteAt(index, n int) ([]Op, error) {
	if index < 0 || n < 0 || index+n > len(d.atoms) {
		return nil, fmt.Errorf("delete range [%d,%d) out of range [0,%d]", index, index+n, len(d.atoms))
	}
	pids := make([]Pid, n)
	for i := 0; i < n; i++ {
		pids[i] = d.atoms[index+i].pid
	}
	ops := make([]Op, n)
	for i, pid := range pids {
		ops[i] = &Delete{Pid: pid}
		if err := d.Apply(ops[i]); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (d *Doc) search(pid Pid) int {
	return sort.Search(len(d.atoms), func(i int) bool {
		return d.atoms[i].pid.Compare(pid) >= 0
	})
}
