package pipeline

import (
	"sort"

	"github.com/sells-group/landpermit-cli/internal/model"
)

// NeighborhoodCount is the number of permits in one dong.
type NeighborhoodCount struct {
	Neighborhood string `json:"neighborhood"`
	Count        int    `json:"count"`
}

// BuildingCount is the number of permits for one (dong, apartment) pair.
type BuildingCount struct {
	Neighborhood string `json:"neighborhood"`
	Apartment    string `json:"apartment"`
	Count        int    `json:"count"`
}

// CountByNeighborhood groups records by dong, most permits first. Ties keep
// the order in which the dong first appeared.
func CountByNeighborhood(records []model.PermitRecord) []NeighborhoodCount {
	index := make(map[string]int)
	var out []NeighborhoodCount
	for _, r := range records {
		i, ok := index[r.NeighborhoodName]
		if !ok {
			i = len(out)
			index[r.NeighborhoodName] = i
			out = append(out, NeighborhoodCount{Neighborhood: r.NeighborhoodName})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// CountByBuilding groups records by (dong, apartment), most permits first.
// Ties keep first-appearance order.
func CountByBuilding(records []model.PermitRecord) []BuildingCount {
	type key struct{ dong, apt string }
	index := make(map[key]int)
	var out []BuildingCount
	for _, r := range records {
		k := key{r.NeighborhoodName, r.ApartmentName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, BuildingCount{Neighborhood: k.dong, Apartment: k.apt})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}

// FilterByDistrict returns the records tagged with district, in order.
func FilterByDistrict(records []model.PermitRecord, district string) []model.PermitRecord {
	var out []model.PermitRecord
	for _, r := range records {
		if r.DistrictName == district {
			out = append(out, r)
		}
	}
	return out
}
