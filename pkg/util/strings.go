// Package util converts loosely typed tool arguments into Go values.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GetAsString converts a JSON decoded value to a string
func GetAsString(s any) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot convert nil to string")
	}

	switch v := s.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// GetAsInteger converts various types to integer
// If s is an integer, return it
// If s is a whole float (as JSON numbers decode) or a numeric string, convert it
// If s is any other type, return an error
func GetAsInteger(s any) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("cannot convert nil to integer")
	}

	switch v := s.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("int64 value %d is out of int range", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("float64 value %f is not a whole number", v)
		}
		return int(v), nil
	case string:
		result, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to integer: %w", v, err)
		}
		return result, nil
	default:
		return 0, fmt.Errorf("cannot convert type %T to integer", s)
	}
}

// GetAsIntegerList accepts a JSON array of numbers or a comma separated string
func GetAsIntegerList(s any) ([]int, error) {
	var items []any
	switch v := s.(type) {
	case nil:
		return nil, nil
	case []int:
		return v, nil
	case []any:
		items = v
	case string:
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) != "" {
				items = append(items, part)
			}
		}
	default:
		return nil, fmt.Errorf("cannot convert type %T to a list of integers", s)
	}

	result := make([]int, 0, len(items))
	for _, item := range items {
		n, err := GetAsInteger(item)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}
