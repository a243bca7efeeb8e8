package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

const (
	filterOpAnd = "$and"
	filterOpOr  = "$or"
	filterOpNot = "$not"
	filterOpIn  = "$in"
	filterOpEq  = "$eq"
	filterOpNe  = "$ne"
)

type translatedFilter struct {
	Must    []any
	Should  []any
	MustNot []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.Should) > 0 {
		out["should"] = f.Should
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

func mergeTranslatedFilters(dst *translatedFilter, src translatedFilter) {
	if dst == nil {
		return
	}
	dst.Must = append(dst.Must, src.Must...)
	dst.Should = append(dst.Should, src.Should...)
	dst.MustNot = append(dst.MustNot, src.MustNot...)
}

// translateFilterMap converts the adapter's operator-map filter dialect
// into a qdrant filter clause. Keys are walked in sorted order so the
// produced request body is deterministic.
func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	if len(filter) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := filter[key]
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}

		if strings.HasPrefix(k, "$") {
			sub, err := translateOperator(k, value)
			if err != nil {
				return translatedFilter{}, err
			}
			mergeTranslatedFilters(&out, sub)
			continue
		}

		fieldPart, err := translateFieldFilter(k, value)
		if err != nil {
			return translatedFilter{}, err
		}
		mergeTranslatedFilters(&out, fieldPart)
	}

	return out, nil
}

func translateOperator(op string, value any) (translatedFilter, error) {
	out := translatedFilter{}
	switch strings.ToLower(op) {
	case filterOpAnd, filterOpOr:
		items, err := toObjectSlice(value)
		if err != nil {
			return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("operator %s expects array of objects", op), err)
		}
		for _, item := range items {
			sub, err := translateFilterMap(item)
			if err != nil {
				return translatedFilter{}, err
			}
			if op == filterOpAnd {
				out.Must = append(out.Must, sub.asMap())
			} else {
				out.Should = append(out.Should, sub.asMap())
			}
		}
		return out, nil
	case filterOpNot:
		item, ok := value.(map[string]any)
		if !ok {
			return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("operator %s expects an object", filterOpNot), nil)
		}
		sub, err := translateFilterMap(item)
		if err != nil {
			return translatedFilter{}, err
		}
		out.MustNot = append(out.MustNot, sub.asMap())
		return out, nil
	default:
		return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter,
			fmt.Sprintf("unsupported top-level filter operator %q", op), nil)
	}
}

func translateFieldFilter(field string, value any) (translatedFilter, error) {
	out := translatedFilter{}

	opsMap, isOps := value.(map[string]any)
	if !isOps {
		scalar, ok := toScalarValue(value)
		if !ok {
			return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("field %q expects scalar value or operator object", field), nil)
		}
		out.Must = append(out.Must, matchCondition(field, scalar))
		return out, nil
	}

	if len(opsMap) == 0 {
		return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
			fmt.Sprintf("field %q has empty operator map", field), nil)
	}

	ops := make([]string, 0, len(opsMap))
	for op := range opsMap {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		opVal := opsMap[op]
		switch strings.ToLower(strings.TrimSpace(op)) {
		case filterOpEq, filterOpNe:
			scalar, ok := toScalarValue(opVal)
			if !ok {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects scalar value", op, field), nil)
			}
			if strings.EqualFold(op, filterOpEq) {
				out.Must = append(out.Must, matchCondition(field, scalar))
			} else {
				out.MustNot = append(out.MustNot, matchCondition(field, scalar))
			}
		case filterOpIn:
			values, err := toScalarSlice(opVal)
			if err != nil || len(values) == 0 {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
					fmt.Sprintf("operator %s for field %q expects non-empty scalar array", filterOpIn, field), err)
			}
			out.Must = append(out.Must, map[string]any{
				"key":   field,
				"match": map[string]any{"any": values},
			})
		default:
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported filter operator %q for field %q", op, field), nil)
		}
	}
	return out, nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func toObjectSlice(value any) ([]map[string]any, error) {
	rawSlice, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected []any, got %T", value)
	}
	out := make([]map[string]any, 0, len(rawSlice))
	for _, item := range rawSlice {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected map[string]any in array, got %T", item)
		}
		out = append(out, obj)
	}
	return out, nil
}

func toScalarSlice(value any) ([]any, error) {
	switch typed := value.(type) {
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, fmt.Errorf("expected scalar, got %T", v)
			}
			out = append(out, scalar)
		}
		return out, nil
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	case []int:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected scalar array, got %T", value)
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int, int64, uint64, float64:
		return typed, true
	case int32:
		return int(typed), true
	case float32:
		return float64(typed), true
	default:
		return nil, false
	}
}
