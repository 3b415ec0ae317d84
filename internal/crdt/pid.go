package crdt

import (
	"fmt"
	"strconv"
	"strings"
)

const maxPos = ^uint32(0)

// Seg is one level of a position identifier: a position within the level
// and the site that allocated it.
type Seg struct {
	Pos  uint32
	Site string
}

// Pid is a Logoot-style position identifier. Pids are totally ordered and
// dense: between any two pids a fresh one can be allocated, so concurrent
// insertions never collide on a position.
type Pid []Seg

// Compare orders pids segment by segment: first by position, then by site.
// A pid that is a strict prefix of another sorts before it.
func (p Pid) Compare(q Pid) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i].Pos != q[i].Pos {
			if p[i].Pos < q[i].Pos {
				return -1
			}
			return 1
		}
		if c := strings.Compare(p[i].Site, q[i].Site); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	}
	return 0
}

func (p Pid) Encode() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = fmt.Sprintf("%d~%s", seg.Pos, seg.Site)
	}
	return strings.Join(parts, ".")
}

func DecodePid(s string) (Pid, error) {
	if s == "" {
		return nil, fmt.Errorf("empty pid")
	}
	parts := strings.Split(s, ".")
	pid := make(Pid, len(parts))
	for i, part := range parts {
		tilde := strings.Index(part, "~")
		if tilde <= 0 {
			return nil, fmt.Errorf("malformed pid segment %q", part)
		}
		pos, err := strconv.ParseUint(part[:tilde], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed pid segment %q", part)
		}
		pid[i] = Seg{Pos: uint32(pos), Site: part[tilde+1:]}
	}
	return pid, nil
}

// PidBetween allocates a fresh pid strictly between left and right. A nil
// left means the start of the document and a nil right means the end.
// Allocation walks down levels until it finds room, following the left
// neighbor's path; when the left neighbor is exhausted and the right
// neighbor blocks the current level, a zero-position spacer opens a new
// level below it.
func PidBetween(left, right Pid, site string) Pid {
	prefix := make(Pid, 0, len(left)+1)
	l, r := left, right
	for {
		lseg := Seg{}
		if len(l) > 0 {
			lseg = l[0]
		}
		rseg := Seg{Pos: maxPos}
		if len(r) > 0 {
			rseg = r[0]
		}

		if rseg.Pos > lseg.Pos+1 {
			return append(prefix, Seg{Pos: lseg.Pos + 1, Site: site})
		}

		if len(l) > 0 {
			// Follow the left neighbor down. Once the right neighbor
			// diverges at this level, everything under the left branch
			// already sorts before it.
			prefix = append(prefix, lseg)
			if len(r) > 0 && rseg == lseg {
				r = r[1:]
			} else {
				r = nil
			}
			l = l[1:]
			continue
		}

		// Left is exhausted and rseg.Pos is 0 or 1.
		if rseg.Pos == 1 || (rseg.Pos == 0 && site < rseg.Site) {
			// Spacer sorts before the right neighbor's head; the next
			// level is unconstrained.
			prefix = append(prefix, Seg{Pos: 0, Site: site})
			r = nil
			continue
		}
		// rseg.Pos == 0 with site >= rseg.Site: descend into the right
		// neighbor's branch. A pid never ends on a zero position, so the
		// remainder is non-empty.
		prefix = append(prefix, rseg)
		r = r[1:]
	}
}
