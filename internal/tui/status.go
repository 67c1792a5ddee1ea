package tui

import (
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

// Status is the decoded Status response.
type Status struct {
	Version   string
	PID       int
	Console   string
	StartedAt string
	Workers   []Worker
}

// Worker is one running worker in a Status response.
type Worker struct {
	ID        string
	PID       int
	StartedAt string
}

// Attached reports whether the controller currently shows its console.
func (s Status) Attached() bool {
	return s.Console == "attached"
}

// ParseStatus decodes a Status response. Missing fields stay zero.
func ParseStatus(st *structpb.Struct) Status {
	m := st.AsMap()
	s := Status{
		Version:   stringField(m, "version"),
		PID:       intField(m, "pid"),
		Console:   stringField(m, "console"),
		StartedAt: stringField(m, "started_at"),
	}

	list, _ := m["workers"].([]any)
	for _, item := range list {
		wm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s.Workers = append(s.Workers, Worker{
			ID:        stringField(wm, "id"),
			PID:       intField(wm, "pid"),
			StartedAt: stringField(wm, "started_at"),
		})
	}
	sort.SliceStable(s.Workers, func(i, j int) bool {
		return s.Workers[i].StartedAt < s.Workers[j].StartedAt
	})
	return s
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func intField(m map[string]any, key string) int {
	v, _ := m[key].(float64)
	return int(v)
}
