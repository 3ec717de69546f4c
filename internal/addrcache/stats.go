package addrcache

import (
	"github.com/sells-group/landpermit-cli/internal/model"
)

// Stats breaks the cached values down by lookup outcome.
type Stats struct {
	Entries        int `json:"entries" yaml:"entries"`
	Resolved       int `json:"resolved" yaml:"resolved"`
	EmptyName      int `json:"empty_name" yaml:"empty_name"`
	NoResults      int `json:"no_results" yaml:"no_results"`
	NoBuildingName int `json:"no_building_name" yaml:"no_building_name"`
	LookupErrors   int `json:"lookup_errors" yaml:"lookup_errors"`
}

// Failures returns the number of cached failure sentinels.
func (s Stats) Failures() int {
	return s.NoResults + s.NoBuildingName + s.LookupErrors
}

// Summarize classifies every entry currently held by st.
func Summarize(st Store) Stats {
	var s Stats
	for _, v := range st.Snapshot() {
		s.Entries++
		res := model.ParseResolution(v)
		switch res.Kind {
		case model.NoResults:
			s.NoResults++
		case model.NoBuildingName:
			s.NoBuildingName++
		case model.LookupError:
			s.LookupErrors++
		default:
			if res.Name == "" {
				s.EmptyName++
			} else {
				s.Resolved++
			}
		}
	}
	return s
}
