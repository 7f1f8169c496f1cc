package args

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type nargsKind int

const (
	nargsScalar nargsKind = iota
	nargsOptional
	nargsOneOrMore
	nargsZeroOrMore
	nargsExactly
)

// NArgs describes an argument's arity. The zero value is a plain scalar.
// Serialized forms follow the argparse convention: null, "?", "+", "*", or a
// fixed integer.
type NArgs struct {
	kind nargsKind
	n    int
}

var (
	// Scalar accepts exactly one value.
	Scalar = NArgs{kind: nargsScalar}
	// Optional accepts zero or one value.
	Optional = NArgs{kind: nargsOptional}
	// OneOrMore accepts a list of at least one value.
	OneOrMore = NArgs{kind: nargsOneOrMore}
	// ZeroOrMore accepts a possibly empty list of values.
	ZeroOrMore = NArgs{kind: nargsZeroOrMore}
)

// Exactly accepts a list of exactly n values. n must be at least 1.
func Exactly(n int) NArgs {
	if n < 1 {
		panic(fmt.Sprintf("args: Exactly requires n >= 1, got %d", n))
	}
	return NArgs{kind: nargsExactly, n: n}
}

// IsList reports whether this arity only admits list values.
func (na NArgs) IsList() bool {
	switch na.kind {
	case nargsOneOrMore, nargsZeroOrMore, nargsExactly:
		return true
	}
	return false
}

// Count returns the fixed list length and true for Exactly arities.
func (na NArgs) Count() (int, bool) {
	if na.kind == nargsExactly {
		return na.n, true
	}
	return 0, false
}

// String returns the argparse-style representation ("" for scalar).
func (na NArgs) String() string {
	switch na.kind {
	case nargsOptional:
		return "?"
	case nargsOneOrMore:
		return "+"
	case nargsZeroOrMore:
		return "*"
	case nargsExactly:
		return strconv.Itoa(na.n)
	}
	return ""
}

// MarshalJSON serializes to null, "?", "+", "*", or an integer.
func (na NArgs) MarshalJSON() ([]byte, error) {
	switch na.kind {
	case nargsScalar:
		return []byte("null"), nil
	case nargsExactly:
		return json.Marshal(na.n)
	}
	return json.Marshal(na.String())
}

// UnmarshalJSON accepts null, "?", "+", "*", or an integer.
func (na *NArgs) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*na = Scalar
	case string:
		switch v {
		case "?":
			*na = Optional
		case "+":
			*na = OneOrMore
		case "*":
			*na = ZeroOrMore
		default:
			return fmt.Errorf("args: unrecognized nargs %q", v)
		}
	case float64:
		n := int(v)
		if n < 1 {
			return fmt.Errorf("args: fixed nargs must be >= 1, got %d", n)
		}
		*na = Exactly(n)
	default:
		return fmt.Errorf("args: unrecognized nargs value %v", raw)
	}
	return nil
}
