package sync

import (
	"encoding/json"
	"strings"
)

// UncategorizedLabel is the fallback when a record carries no usable
// category information in any of the provider's shapes.
const UncategorizedLabel = "Uncategorized"

// Category is the canonical category shape used downstream of the adapter.
type Category struct {
	Primary  string
	Detailed string
}

// categoryObject is the modern structured category payload.
type categoryObject struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// NormalizeCategory derives a canonical category from the provider's two
// category fields. The modern field may be an object or a plain string; the
// legacy field may be an array of strings or a plain string. Every shape,
// including absent/null, yields a non-empty Primary.
func NormalizeCategory(modern, legacy json.RawMessage) Category {
	if cat, ok := fromModern(modern); ok {
		return cat
	}
	if cat, ok := fromLegacy(legacy); ok {
		return cat
	}
	return Category{Primary: UncategorizedLabel, Detailed: UncategorizedLabel}
}

func fromModern(raw json.RawMessage) (Category, bool) {
	if isEmptyJSON(raw) {
		return Category{}, false
	}

	var obj categoryObject
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Primary != "" {
		detailed := obj.Detailed
		if detailed == "" {
			detailed = obj.Primary
		}
		return Category{Primary: obj.Primary, Detailed: detailed}, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return Category{Primary: s, Detailed: s}, true
	}

	return Category{}, false
}

func fromLegacy(raw json.RawMessage) (Category, bool) {
	if isEmptyJSON(raw) {
		return Category{}, false
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 && arr[0] != "" {
		return Category{Primary: arr[0], Detailed: arr[len(arr)-1]}, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return Category{Primary: s, Detailed: s}, true
	}

	return Category{}, false
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
