package pipeline

import (
	"github.com/sells-group/landpermit-cli/internal/model"
)

// Deduplicate keeps one record per serial number, in order of first
// appearance. Within a group the first record with a resolved building wins;
// if none resolved, the group's first record is kept. Input is not modified.
func Deduplicate(records []model.PermitRecord) []model.PermitRecord {
	order := make([]string, 0, len(records))
	groups := make(map[string][]int, len(records))
	for i, r := range records {
		if _, seen := groups[r.SerialNo]; !seen {
			order = append(order, r.SerialNo)
		}
		groups[r.SerialNo] = append(groups[r.SerialNo], i)
	}

	out := make([]model.PermitRecord, 0, len(order))
	for _, serial := range order {
		idx := groups[serial]
		chosen := idx[0]
		for _, i := range idx {
			if isClean(records[i]) {
				chosen = i
				break
			}
		}
		out = append(out, records[chosen])
	}
	return out
}

// isClean reports whether the record's building lookup succeeded.
func isClean(r model.PermitRecord) bool {
	return r.Building.OK() && !model.HasFailureMarker(r.ApartmentName)
}
