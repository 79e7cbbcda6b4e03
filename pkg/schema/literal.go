package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mobinergy/database-kit/pkg/errors"
)

// Literal renders a Go value as an SQL literal. Strings are single-quoted
// with embedded quotes doubled; nil renders as NULL; times render as quoted
// RFC 3339. Unsupported types are an error rather than a silent %v.
func Literal(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quoteString(val), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case time.Time:
		return quoteString(val.UTC().Format(time.RFC3339Nano)), nil
	case []byte:
		return "'\\x" + fmt.Sprintf("%x", val) + "'", nil
	default:
		return "", errors.Newf(errors.ErrorTypeQuery, "cannot render %T as an SQL literal", v)
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
