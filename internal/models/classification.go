package models

import (
	"fmt"
	"strings"
)

// ImageVerdict is the closed set of outcomes of image classification.
type ImageVerdict int

const (
	VerdictUsable ImageVerdict = iota
	VerdictRemoveBackground
	VerdictDelete
)

func (v ImageVerdict) String() string {
	switch v {
	case VerdictUsable:
		return "usable"
	case VerdictRemoveBackground:
		return "remove_background"
	case VerdictDelete:
		return "delete"
	}
	return fmt.Sprintf("ImageVerdict(%d)", int(v))
}

// ParseImageVerdict accepts the labels the classifier prompt asks for plus a
// few spellings models tend to produce.
func ParseImageVerdict(s string) (ImageVerdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "usable", "fine", "keep", "ok":
		return VerdictUsable, nil
	case "remove_background", "remove-background", "remove background", "remove", "clean", "clean_background":
		return VerdictRemoveBackground, nil
	case "delete", "discard", "drop":
		return VerdictDelete, nil
	}
	return 0, fmt.Errorf("unknown image verdict %q", s)
}

type Classification struct {
	Verdict ImageVerdict `json:"verdict"`
	Reason  string       `json:"reason"`
}
