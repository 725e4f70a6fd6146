package feed

import (
	"reflect"
	"testing"
)

func TestSanitizeConvertsLibraryTypes(t *testing.T) {
	in := map[string]any{
		"score":  float32(0.75),
		"count":  int32(3),
		"labels": []string{"a", "b"},
		"vector": []float32{0.1, 0.2},
	}
	out := Sanitize(in).(map[string]any)

	if v, ok := out["score"].(float64); !ok || v != 0.75 {
		t.Errorf("score = %v (%T)", out["score"], out["score"])
	}
	if v, ok := out["count"].(int64); !ok || v != 3 {
		t.Errorf("count = %v (%T)", out["count"], out["count"])
	}
	if _, ok := out["labels"].([]any); !ok {
		t.Errorf("labels = %T", out["labels"])
	}
	vec, ok := out["vector"].([]any)
	if !ok || len(vec) != 2 {
		t.Fatalf("vector = %v (%T)", out["vector"], out["vector"])
	}
	if _, ok := vec[0].(float64); !ok {
		t.Errorf("vector element = %T", vec[0])
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{
		"s":    "text",
		"b":    true,
		"i":    int64(7),
		"f":    3.14,
		"null": nil,
		"nested": map[string]any{
			"list": []any{"x", int64(1), 2.5},
		},
	}
	once := Sanitize(in)
	twice := Sanitize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sanitize not idempotent: %v vs %v", once, twice)
	}
}

func TestSanitizeNestedDepth(t *testing.T) {
	in := []any{
		map[string]any{"inner": []any{float32(1.5)}},
	}
	out := Sanitize(in).([]any)
	inner := out[0].(map[string]any)["inner"].([]any)
	if v, ok := inner[0].(float64); !ok || v != 1.5 {
		t.Errorf("nested value = %v (%T)", inner[0], inner[0])
	}
}

func TestSanitizeMetadataNil(t *testing.T) {
	if SanitizeMetadata(nil) != nil {
		t.Error("nil metadata should stay nil")
	}
}

func TestEmptyStatusShape(t *testing.T) {
	s := EmptyStatus()
	if s.LastRun != "" {
		t.Errorf("last_run = %q, want empty", s.LastRun)
	}
	if s.Summary == nil || len(s.Summary) != 0 {
		t.Errorf("summary = %v, want empty map", s.Summary)
	}
	if s.TotalRecords != 0 {
		t.Errorf("total_records = %d", s.TotalRecords)
	}
	if s.Errors == nil || len(s.Errors) != 0 {
		t.Errorf("errors = %v, want empty map", s.Errors)
	}
}
