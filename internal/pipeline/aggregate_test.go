package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/landpermit-cli/internal/model"
)

func labeled(dong, apt, district string) model.PermitRecord {
	return model.PermitRecord{NeighborhoodName: dong, ApartmentName: apt, DistrictName: district}
}

func sampleRecords() []model.PermitRecord {
	return []model.PermitRecord{
		labeled("잠원동", "잠원동 신반포", "서초구"),
		labeled("반포동", "반포동 래미안", "서초구"),
		labeled("반포동", "반포동 아크로리버파크", "서초구"),
		labeled("반포동", "반포동 래미안", "서초구"),
		labeled("대치동", "대치동 은마", "강남구"),
		labeled("대치동", "대치동 은마", "강남구"),
	}
}

func TestCountByNeighborhood(t *testing.T) {
	got := CountByNeighborhood(sampleRecords())

	assert.Equal(t, []NeighborhoodCount{
		{Neighborhood: "반포동", Count: 3},
		{Neighborhood: "대치동", Count: 2},
		{Neighborhood: "잠원동", Count: 1},
	}, got)
}

func TestCountByNeighborhood_TiesKeepFirstAppearance(t *testing.T) {
	records := []model.PermitRecord{
		labeled("잠원동", "", ""),
		labeled("반포동", "", ""),
		labeled("우면동", "", ""),
	}

	got := CountByNeighborhood(records)

	assert.Equal(t, []string{"잠원동", "반포동", "우면동"},
		[]string{got[0].Neighborhood, got[1].Neighborhood, got[2].Neighborhood})
}

func TestCountByBuilding(t *testing.T) {
	got := CountByBuilding(sampleRecords())

	assert.Equal(t, []BuildingCount{
		{Neighborhood: "반포동", Apartment: "반포동 래미안", Count: 2},
		{Neighborhood: "대치동", Apartment: "대치동 은마", Count: 2},
		{Neighborhood: "잠원동", Apartment: "잠원동 신반포", Count: 1},
		{Neighborhood: "반포동", Apartment: "반포동 아크로리버파크", Count: 1},
	}, got)
}

func TestCounts_SumToTotal(t *testing.T) {
	records := sampleRecords()

	sum := 0
	for _, c := range CountByNeighborhood(records) {
		sum += c.Count
	}
	assert.Equal(t, len(records), sum)

	sum = 0
	for _, c := range CountByBuilding(records) {
		sum += c.Count
	}
	assert.Equal(t, len(records), sum)
}

func TestCounts_Empty(t *testing.T) {
	assert.Empty(t, CountByNeighborhood(nil))
	assert.Empty(t, CountByBuilding(nil))
}

func TestFilterByDistrict(t *testing.T) {
	got := FilterByDistrict(sampleRecords(), "강남구")
	assert.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "강남구", r.DistrictName)
	}
	assert.Empty(t, FilterByDistrict(sampleRecords(), "용산구"))
}
