package noteservice

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/starford/ledger/internal/apperr"
)

// ParseScope converts a transport-level scope value into a node id. nil
// means no scope. Numbers must be integral; strings must hold an integer.
func ParseScope(v any) (*int, error) {
	var n int
	switch s := v.(type) {
	case nil:
		return nil, nil
	case int:
		n = s
	case int64:
		n = int(s)
	case float64:
		if s != math.Trunc(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidScope, s)
		}
		n = int(s)
	case json.Number:
		i, err := s.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidScope, s)
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidScope, s)
		}
		n = i
	default:
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidScope, v)
	}
	return &n, nil
}
