package pipeline

import "github.com/devmemory/learning-engine/pkg/store"

// payloadInt64 reads an integer field out of a task payload, tolerant of
// both the int64 a same-process EnqueueTask call wrote and the float64 a
// jsonb round-trip through Postgres decodes numbers as.
func payloadInt64(payload store.JSONMap, key string) (int64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func payloadString(payload store.JSONMap, key string) string {
	s, _ := payload[key].(string)
	return s
}
