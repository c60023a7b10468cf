package message

import (
	"fmt"
	"math"
)

// VoteChange is the vote/unvote pair carried by vote notifications. Either side may
// be empty.
type VoteChange struct {
	Vote   string
	Unvote string
}

// Args is the ordered argument list of a notification. Position and arity are fixed
// per event name.
type Args []any

func (a Args) at(i int) (any, error) {
	if i < 0 || i >= len(a) {
		return nil, fmt.Errorf("argument %d missing (have %d)", i, len(a))
	}
	return a[i], nil
}

// String returns argument i as a string.
func (a Args) String(i int) (string, error) {
	v, err := a.at(i)
	if err != nil {
		return "", err
	}
	switch value := v.(type) {
	case string:
		return value, nil
	case fmt.Stringer:
		return value.String(), nil
	default:
		return "", fmt.Errorf("argument %d: expected string, got %T", i, v)
	}
}

// Strings returns argument i as a string list. A nil entry is an empty list.
func (a Args) Strings(i int) ([]string, error) {
	v, err := a.at(i)
	if err != nil {
		return nil, err
	}
	switch value := v.(type) {
	case []string:
		return value, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("argument %d: expected []string, got %T", i, v)
	}
}

// Int64 returns argument i as an int64.
func (a Args) Int64(i int) (int64, error) {
	v, err := a.at(i)
	if err != nil {
		return 0, err
	}
	switch value := v.(type) {
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case uint64:
		if value > math.MaxInt64 {
			return 0, fmt.Errorf("argument %d: %d overflows int64", i, value)
		}
		return int64(value), nil
	default:
		return 0, fmt.Errorf("argument %d: expected integer, got %T", i, v)
	}
}

// VoteChange returns argument i as a VoteChange.
func (a Args) VoteChange(i int) (VoteChange, error) {
	v, err := a.at(i)
	if err != nil {
		return VoteChange{}, err
	}
	change, ok := v.(VoteChange)
	if !ok {
		return VoteChange{}, fmt.Errorf("argument %d: expected VoteChange, got %T", i, v)
	}
	return change, nil
}
