package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// OpKind tags an Op.
type OpKind string

const (
	OpCompare OpKind = "compare"
	OpSwap    OpKind = "swap"
	OpWrite   OpKind = "write"
	OpMark    OpKind = "mark"
	OpUnmark  OpKind = "unmark"
	OpPivot   OpKind = "pivot"
)

// Role is the semantic annotation carried by a mark op.
type Role string

const (
	RoleRange  Role = "range"
	RolePivot  Role = "pivot"
	RoleSorted Role = "sorted"
)

// Op is one observable mutation or annotation emitted by a step engine.
//
// Which fields are meaningful depends on Kind:
//
//	compare, swap  I, J
//	write          Index, Value
//	mark           Indices, Role
//	unmark         Indices
//	pivot          Index
//
// Unmark is reserved: no engine emits it, but consumers must accept it.
type Op struct {
	Kind    OpKind
	I       int
	J       int
	Index   int
	Value   int
	Indices []int
	Role    Role
}

// Compare observes a[i] against a[j].
func Compare(i, j int) Op { return Op{Kind: OpCompare, I: i, J: j} }

// Swap exchanges a[i] and a[j].
func Swap(i, j int) Op { return Op{Kind: OpSwap, I: i, J: j} }

// Write sets a[index] = value.
func Write(index, value int) Op { return Op{Kind: OpWrite, Index: index, Value: value} }

// Mark annotates indices with a role.
func Mark(role Role, indices ...int) Op {
	return Op{Kind: OpMark, Role: role, Indices: indices}
}

// Unmark clears annotations on indices.
func Unmark(indices ...int) Op { return Op{Kind: OpUnmark, Indices: indices} }

// PivotAt declares the active partition pivot.
func PivotAt(index int) Op { return Op{Kind: OpPivot, Index: index} }

// AllIndices returns [0, 1, ..., n-1]. Returns an empty (non-nil) slice for n <= 0.
func AllIndices(n int) []int {
	if n < 0 {
		n = 0
	}
	out := make([]int, n)
	for k := range out {
		out[k] = k
	}
	return out
}

// Mutates reports whether applying the op changes array contents.
func (o Op) Mutates() bool {
	return o.Kind == OpSwap || o.Kind == OpWrite
}

// Equal reports structural equality, ignoring fields Kind does not use.
func (o Op) Equal(other Op) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OpCompare, OpSwap:
		return o.I == other.I && o.J == other.J
	case OpWrite:
		return o.Index == other.Index && o.Value == other.Value
	case OpMark:
		return o.Role == other.Role && slices.Equal(o.Indices, other.Indices)
	case OpUnmark:
		return slices.Equal(o.Indices, other.Indices)
	case OpPivot:
		return o.Index == other.Index
	}
	return false
}

// String renders the op in a compact, log-friendly form, e.g. "swap(0,1)".
func (o Op) String() string {
	switch o.Kind {
	case OpCompare, OpSwap:
		return fmt.Sprintf("%s(%d,%d)", o.Kind, o.I, o.J)
	case OpWrite:
		return fmt.Sprintf("write(%d=%d)", o.Index, o.Value)
	case OpMark:
		return fmt.Sprintf("mark(%s,%v)", o.Role, o.Indices)
	case OpUnmark:
		return fmt.Sprintf("unmark(%v)", o.Indices)
	case OpPivot:
		return fmt.Sprintf("pivot(%d)", o.Index)
	}
	return fmt.Sprintf("op(%s)", o.Kind)
}

// Canonical returns the op as a map suitable for MarshalCanonical.
// Only the fields used by the op's kind are included.
func (o Op) Canonical() map[string]any {
	m := map[string]any{"type": string(o.Kind)}
	switch o.Kind {
	case OpCompare, OpSwap:
		m["i"] = o.I
		m["j"] = o.J
	case OpWrite:
		m["index"] = o.Index
		m["value"] = o.Value
	case OpMark:
		m["indices"] = intsToAny(o.Indices)
		m["role"] = string(o.Role)
	case OpUnmark:
		m["indices"] = intsToAny(o.Indices)
	case OpPivot:
		m["index"] = o.Index
	}
	return m
}

// MarshalJSON encodes the op in its wire form, e.g. {"type":"swap","i":0,"j":1}.
func (o Op) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(o.Canonical())
}

// opWire mirrors the wire form. Pointers distinguish a zero index from absence.
type opWire struct {
	Type    OpKind `json:"type" yaml:"type"`
	I       *int   `json:"i,omitempty" yaml:"i,omitempty"`
	J       *int   `json:"j,omitempty" yaml:"j,omitempty"`
	Index   *int   `json:"index,omitempty" yaml:"index,omitempty"`
	Value   *int   `json:"value,omitempty" yaml:"value,omitempty"`
	Indices []int  `json:"indices,omitempty" yaml:"indices,omitempty"`
	Role    Role   `json:"role,omitempty" yaml:"role,omitempty"`
}

// UnmarshalJSON decodes the wire form and validates required fields.
func (o *Op) UnmarshalJSON(data []byte) error {
	var w opWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal op: %w", err)
	}
	op, err := w.toOp()
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// UnmarshalYAML lets scenario files spell ops in the same wire form.
func (o *Op) UnmarshalYAML(unmarshal func(any) error) error {
	var w opWire
	if err := unmarshal(&w); err != nil {
		return fmt.Errorf("unmarshal op: %w", err)
	}
	op, err := w.toOp()
	if err != nil {
		return err
	}
	*o = op
	return nil
}

func (w opWire) toOp() (Op, error) {
	need := func(name string, v *int) (int, error) {
		if v == nil {
			return 0, fmt.Errorf("op %q: missing field %q", w.Type, name)
		}
		return *v, nil
	}
	op := Op{Kind: w.Type}
	var err error
	switch w.Type {
	case OpCompare, OpSwap:
		if op.I, err = need("i", w.I); err != nil {
			return Op{}, err
		}
		if op.J, err = need("j", w.J); err != nil {
			return Op{}, err
		}
	case OpWrite:
		if op.Index, err = need("index", w.Index); err != nil {
			return Op{}, err
		}
		if op.Value, err = need("value", w.Value); err != nil {
			return Op{}, err
		}
	case OpMark:
		switch w.Role {
		case RoleRange, RolePivot, RoleSorted:
		default:
			return Op{}, fmt.Errorf("op mark: unknown role %q", w.Role)
		}
		op.Role = w.Role
		op.Indices = nonNil(w.Indices)
	case OpUnmark:
		op.Indices = nonNil(w.Indices)
	case OpPivot:
		if op.Index, err = need("index", w.Index); err != nil {
			return Op{}, err
		}
	default:
		return Op{}, fmt.Errorf("unknown op type %q", w.Type)
	}
	return op, nil
}

func nonNil(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}

func intsToAny(xs []int) []any {
	out := make([]any, len(xs))
	for k, x := range xs {
		out[k] = x
	}
	return out
}
