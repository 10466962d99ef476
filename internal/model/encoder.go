package model

import (
	"fmt"
	"sort"
)

// LabelEncoder maps category labels to integer codes. Classes are
// sorted lexicographically at fit time, so codes are stable across
// retrains over the same category set.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitEncoder collects the distinct values and assigns sorted codes.
func FitEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{})
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)
	return &LabelEncoder{Classes: classes}
}

// Encode returns the integer code for value, or ErrUnseenCategory if
// the value was not present during training.
func (e *LabelEncoder) Encode(value string) (int, error) {
	for i, c := range e.Classes {
		if c == value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnseenCategory, value)
}
