package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReadString trims the input if it is a string and returns an error otherwise.
func ReadString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", fmt.Errorf("string is empty")
		}
		return trimmed, nil
	default:
		return "", fmt.Errorf("value is not a string")
	}
}

// ReadOptionalString returns "" for missing values and an error for non-strings.
func ReadOptionalString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("value is not a string")
	}
}

// ReadInt converts JSON numbers (float64) and GraphQL ints to int.
func ReadInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("value is not a whole number")
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("value is not a number")
	}
}

// ReadBool reads a boolean value.
func ReadBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("value is not a boolean")
	}
}

// PositiveIntParam parses a positive integer path parameter.
func PositiveIntParam(c *gin.Context, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Param(name)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
