package model

import "strings"

// FailureKind classifies a failed building-name lookup.
type FailureKind int

const (
	// NotFailed marks a successful lookup.
	NotFailed FailureKind = iota
	// NoResults means the geocoder returned no documents.
	NoResults
	// NoBuildingName means the first document had no road address.
	NoBuildingName
	// LookupError means the lookup itself errored.
	LookupError
)

// Persisted sentinels. They double as the display form of a failed lookup.
const (
	NoResultsText      = "주소 검색 실패"
	NoBuildingNameText = "건물명 없음"
	LookupErrorPrefix  = "오류: "
)

// FailureMarkers are substrings that flag an apartment label as unresolved.
var FailureMarkers = []string{"오류", "검색 실패", "건물명 없음"}

// Resolution is the typed result of resolving an address to a building name.
type Resolution struct {
	Name   string
	Kind   FailureKind
	Reason string
}

// Resolved builds a successful resolution.
func Resolved(name string) Resolution {
	return Resolution{Name: name}
}

// Failed builds a failed resolution of the given kind.
func Failed(kind FailureKind, reason string) Resolution {
	return Resolution{Kind: kind, Reason: reason}
}

// OK reports whether the lookup produced a building name.
func (r Resolution) OK() bool {
	return r.Kind == NotFailed
}

// String returns the display and persisted form.
func (r Resolution) String() string {
	switch r.Kind {
	case NoResults:
		return NoResultsText
	case NoBuildingName:
		return NoBuildingNameText
	case LookupError:
		return LookupErrorPrefix + r.Reason
	default:
		return r.Name
	}
}

// ParseResolution maps a persisted cache value back to its typed form.
func ParseResolution(s string) Resolution {
	switch {
	case s == NoResultsText:
		return Failed(NoResults, "")
	case s == NoBuildingNameText:
		return Failed(NoBuildingName, "")
	case strings.HasPrefix(s, LookupErrorPrefix):
		return Failed(LookupError, strings.TrimPrefix(s, LookupErrorPrefix))
	default:
		return Resolved(s)
	}
}

// HasFailureMarker reports whether label contains any failure marker.
func HasFailureMarker(label string) bool {
	for _, m := range FailureMarkers {
		if strings.Contains(label, m) {
			return true
		}
	}
	return false
}
