// utils/values.go
package utils

import (
	"strings"
	"time"
)

// NormalizeColumn converts a scanned database value into something that
// encodes well as JSON. Byte slices become strings. Time values in DATE
// columns become "YYYY-MM-DD"; DATETIME and TIMESTAMP keep the clock even at
// midnight. dbType is sql.ColumnType.DatabaseTypeName; when the driver does
// not report one, a midnight time is taken for a date.
func NormalizeColumn(v any, dbType string) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		switch strings.ToUpper(dbType) {
		case "DATE":
			return val.Format("2006-01-02")
		case "":
			if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
				return val.Format("2006-01-02")
			}
		}
		return val.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
