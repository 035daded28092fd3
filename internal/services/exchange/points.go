package exchange

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	apperrors "civicreward/internal/errors"
)

// ParsePoints accepts the forms a JSON client may send for a point quantity
// and rejects anything that is not a positive integer.
func ParsePoints(raw interface{}) (int64, error) {
	var points int64
	switch v := raw.(type) {
	case int:
		points = int64(v)
	case int32:
		points = int64(v)
	case int64:
		points = v
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, apperrors.ErrInvalidPointsAmount
		}
		points = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, apperrors.ErrInvalidPointsAmount
		}
		points = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, apperrors.ErrInvalidPointsAmount
		}
		points = i
	default:
		return 0, apperrors.ErrInvalidPointsAmount
	}

	if points <= 0 {
		return 0, apperrors.ErrInvalidPointsAmount
	}
	return points, nil
}
