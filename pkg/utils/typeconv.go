// Package utils holds the value conversion helpers shared by the watermark
// resolver and the extraction pipeline.
package utils

import (
	"fmt"
	"strconv"
	"time"
)

// timestampLayouts are tried in order when a driver hands back a textual
// timestamp instead of a time.Time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts a scanned SQL value into a time.Time. time.Time
// values pass through; strings and byte slices are parsed as ISO-8601 or the
// common SQL text layouts. Anything else is an error.
func ParseTimestamp(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil timestamp")
		}
		return *v, nil
	case []byte:
		return ParseTimestamp(string(v))
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q", v)
	case nil:
		return time.Time{}, fmt.Errorf("nil timestamp")
	default:
		return time.Time{}, fmt.Errorf("cannot interpret %T as timestamp", val)
	}
}

// RenderCell converts a scanned SQL value into its tabular text form.
// NULL becomes the empty string; times render as RFC3339 in UTC so the
// output is stable across source session time zones.
func RenderCell(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
