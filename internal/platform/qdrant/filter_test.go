package qdrant

import (
	"errors"
	"testing"
)

func TestTranslateFilterMapScalarEquality(t *testing.T) {
	out, err := translateFilterMap(map[string]any{"document_id": "doc-1"})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(out.Must) != 1 {
		t.Fatalf("must length: want=1 got=%d", len(out.Must))
	}
	cond := out.Must[0].(map[string]any)
	if cond["key"] != "document_id" {
		t.Fatalf("key: got=%v", cond["key"])
	}
}

func TestTranslateFilterMapOperators(t *testing.T) {
	out, err := translateFilterMap(map[string]any{
		"document_id": map[string]any{"$in": []any{"a", "b"}},
		"source_type": map[string]any{"$ne": "knowledge_base"},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(out.Must) != 1 {
		t.Fatalf("must length: want=1 got=%d", len(out.Must))
	}
	if len(out.MustNot) != 1 {
		t.Fatalf("must_not length: want=1 got=%d", len(out.MustNot))
	}
}

func TestTranslateFilterMapAndOr(t *testing.T) {
	out, err := translateFilterMap(map[string]any{
		"$or": []any{
			map[string]any{"document_id": "a"},
			map[string]any{"document_id": "b"},
		},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(out.Should) != 2 {
		t.Fatalf("should length: want=2 got=%d", len(out.Should))
	}
}

func TestTranslateFilterMapDeterministicOrder(t *testing.T) {
	in := map[string]any{"b_field": 1, "a_field": 2, "c_field": 3}
	first, err := translateFilterMap(in)
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	second, err := translateFilterMap(in)
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	for i := range first.Must {
		a := first.Must[i].(map[string]any)["key"]
		b := second.Must[i].(map[string]any)["key"]
		if a != b {
			t.Fatalf("non-deterministic order at %d: %v vs %v", i, a, b)
		}
	}
	if got := first.Must[0].(map[string]any)["key"]; got != "a_field" {
		t.Fatalf("expected sorted keys, first=%v", got)
	}
}

func TestTranslateFilterMapUnsupportedOperator(t *testing.T) {
	_, err := translateFilterMap(map[string]any{"chunk_index": map[string]any{"$gte": 2}})
	var oe *OperationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if oe.Code != OperationErrorUnsupportedFilter {
		t.Fatalf("code: want=%q got=%q", OperationErrorUnsupportedFilter, oe.Code)
	}
}

func TestTranslateFilterMapEmptyIn(t *testing.T) {
	_, err := translateFilterMap(map[string]any{"document_id": map[string]any{"$in": []any{}}})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got=%v", err)
	}
}
