package crdt_test

import (
	"fmt"
	"math/rand"
	"testing"

	"codepair/realtime/internal/crdt"
)

func TestPidEncodeDecode(t *testing.T) {
	pid := crdt.Pid{{Pos: 3, Site: "site-a"}, {Pos: 0, Site: "site-b"}, {Pos: 41, Site: "site-a"}}
	encoded := pid.Encode()
	if encoded != "3~site-a.0~site-b.41~site-a" {
		t.Fatalf("Encode() = %q", encoded)
	}
	decoded, err := crdt.DecodePid(encoded)
	if err != nil {
		t.Fatalf("DecodePid() error = %v", err)
	}
	if decoded.Compare(pid) != 0 {
		t.Fatalf("roundtrip mismatch: %v != %v", decoded, pid)
	}
}

func TestDecodePidRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "3", "~site", "x~site", "3~a..4~b", "18446744073709551616~a"} {
		if _, err := crdt.DecodePid(s); err == nil {
			t.Errorf("DecodePid(%q) succeeded, want error", s)
		}
	}
}

func TestPidCompare(t *testing.T) {
	cases := []struct {
		p, q crdt.Pid
		want int
	}{
		{crdt.Pid{{1, "a"}}, crdt.Pid{{2, "a"}}, -1},
		{crdt.Pid{{1, "a"}}, crdt.Pid{{1, "b"}}, -1},
		{crdt.Pid{{1, "a"}}, crdt.Pid{{1, "a"}}, 0},
		{crdt.Pid{{1, "a"}}, crdt.Pid{{1, "a"}, {1, "b"}}, -1},
		{crdt.Pid{{2, "a"}}, crdt.Pid{{1, "z"}, {9, "z"}}, 1},
	}
	for _, c := range cases {
		if got := c.p.Compare(c.q); got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.p, c.q, got, c.want)
		}
		if got := c.q.Compare(c.p); got != -c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.q, c.p, got, -c.want)
		}
	}
}

func TestPidBetweenSimple(t *testing.T) {
	left := crdt.Pid{{Pos: 1, Site: "a"}}
	right := crdt.Pid{{Pos: 5, Site: "a"}}
	mid := crdt.PidBetween(left, right, "b")
	if mid.Compare(left) <= 0 || mid.Compare(right) >= 0 {
		t.Fatalf("PidBetween(%v, %v) = %v, not strictly between", left, right, mid)
	}
}

func TestPidBetweenSentinels(t *testing.T) {
	first := crdt.PidBetween(nil, nil, "a")
	before := crdt.PidBetween(nil, first, "a")
	after := crdt.PidBetween(first, nil, "a")
	if before.Compare(first) >= 0 {
		t.Fatalf("before=%v not < first=%v", before, first)
	}
	if after.Compare(first) <= 0 {
		t.Fatalf("after=%v not > first=%v", after, first)
	}
}

func TestPidBetweenNoRoom(t *testing.T) {
	// Adjacent top-level positions force a descent.
	left := crdt.Pid{{Pos: 1, Site: "a"}}
	right := crdt.Pid{{Pos: 2, Site: "a"}}
	mid := crdt.PidBetween(left, right, "b")
	if mid.Compare(left) <= 0 || mid.Compare(right) >= 0 {
		t.Fatalf("PidBetween(%v, %v) = %v, not strictly between", left, right, mid)
	}

	// Same position, different sites.
	left = crdt.Pid{{Pos: 3, Site: "a"}}
	right = crdt.Pid{{Pos: 3, Site: "b"}}
	mid = crdt.PidBetween(left, right, "c")
	if mid.Compare(left) <= 0 || mid.Compare(right) >= 0 {
		t.Fatalf("PidBetween(%v, %v) = %v, not strictly between", left, right, mid)
	}

	// Right neighbor blocks the level below a shared prefix.
	left = crdt.Pid{{Pos: 4, Site: "a"}}
	right = crdt.Pid{{Pos: 4, Site: "a"}, {Pos: 1, Site: "b"}}
	mid = crdt.PidBetween(left, right, "c")
	if mid.Compare(left) <= 0 || mid.Compare(right) >= 0 {
		t.Fatalf("PidBetween(%v, %v) = %v, not strictly between", left, right, mid)
	}
}

// Repeated allocation at random positions must keep the sequence strictly
// sorted no matter which sites allocate.
func TestPidBetweenStress(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	pids := []crdt.Pid{}
	for i := 0; i < 2000; i++ {
		at := 0
		if len(pids) > 0 {
			at = r.Intn(len(pids) + 1)
		}
		var left, right crdt.Pid
		if at > 0 {
			left = pids[at-1]
		}
		if at < len(pids) {
			right = pids[at]
		}
		site := fmt.Sprintf("site-%d", r.Intn(3))
		pid := crdt.PidBetween(left, right, site)
		if left != nil && pid.Compare(left) <= 0 {
			t.Fatalf("step %d: %v not > left %v", i, pid, left)
		}
		if right != nil && pid.Compare(right) >= 0 {
			t.Fatalf("step %d: %v not < right %v", i, pid, right)
		}
		pids = append(pids, nil)
		copy(pids[at+1:], pids[at:])
		pids[at] = pid
	}
	for i := 1; i < len(pids); i++ {
		if pids[i-1].Compare(pids[i]) >= 0 {
			t.Fatalf("sequence out of order at %d: %v >= %v", i, pids[i-1], pids[i])
		}
	}
}
