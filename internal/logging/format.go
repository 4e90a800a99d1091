package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const logTimestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(logTimestampLayout)
}

// attrString renders a value unquoted, for the console line prefix.
func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// formatValue renders a value for the key=value tail, quoting text that
// would otherwise be ambiguous.
func formatValue(v slog.Value) string {
	s := attrString(v)
	switch v.Resolve().Kind() {
	case slog.KindString, slog.KindAny:
		if needsQuotes(s) {
			return strconv.Quote(s)
		}
	}
	return s
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
