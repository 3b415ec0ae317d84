package crdt

import (
	"fmt"
	"strings"
)

// Op is an operation against a Doc.
type Op interface {
	Encode() string
}

// Insert places a single atom at a fresh pid.
type Insert struct {
	Pid   Pid
	Value rune
}

func (op *Insert) Encode() string {
	return fmt.Sprintf("i,%s,%s", op.Pid.Encode(), string(op.Value))
}

// Delete removes the atom at a pid.
type Delete struct {
	Pid Pid
}

func (op *Delete) Encode() string {
	return fmt.Sprintf("d,%s", op.Pid.Encode())
}

// DecodeOp returns an Op given an encoded op.
func DecodeOp(s string) (Op, error) {
	switch {
	case strings.HasPrefix(s, "i,"):
		parts := strings.SplitN(s, ",", 3)
		if len(parts) < 3 || parts[2] == "" {
			return nil, fmt.Errorf("malformed insert op: %q", s)
		}
		pid, err := DecodePid(parts[1])
		if err != nil {
			return nil, err
		}
		runes := []rune(parts[2])
		if len(runes) != 1 {
			return nil, fmt.Errorf("insert op carries %d atoms: %q", len(runes), s)
		}
		return &Insert{Pid: pid, Value: runes[0]}, nil
	case strings.HasPrefix(s, "d,"):
		pid, err := DecodePid(s[2:])
		if err != nil {
			return nil, err
		}
		return &Delete{Pid: pid}, nil
	default:
		return nil, fmt.Errorf("unknown op type: %q", s)
	}
}

func EncodeOps(ops []Op) []string {
	strs := make([]string, len(ops))
	for i, op := range ops {
		strs[i] = op.Encode()
	}
	return strs
}

func DecodeOps(strs []string) ([]Op, error) {
	ops := make([]Op, len(strs))
	for i, s := range strs {
		op, err := DecodeOp(s)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
