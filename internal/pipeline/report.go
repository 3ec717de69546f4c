package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/landpermit-cli/internal/model"
)

// NoResultsText is sent when no district returned any permits.
const NoResultsText = "❌ 전체 검색 결과가 없습니다."

// DetailColumns are the display headers of a permit detail table.
var DetailColumns = []string{"허가일자", "구분", "용도", "주소", "아파트명", "일련번호"}

// detailRow returns r's cells in DetailColumns order.
func detailRow(r model.PermitRecord) []string {
	return []string{
		r.HandlingDateString(),
		r.Category,
		r.UsePurpose,
		r.Address,
		r.ApartmentName,
		r.SerialNo,
	}
}

// DetailTable renders records as a permit detail table.
func DetailTable(records []model.PermitRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, detailRow(r))
	}
	return RenderTable(DetailColumns, rows)
}

// ApartmentDetail renders every permit whose apartment label equals
// apartment.
func ApartmentDetail(records []model.PermitRecord, apartment string) string {
	var matched []model.PermitRecord
	for _, r := range records {
		if r.ApartmentName == apartment {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("\n❌ 해당 아파트를 찾을 수 없습니다: '%s'", apartment)
	}
	return fmt.Sprintf("\n🏢 '%s' 아파트 상세 정보:\n%s", apartment, DetailTable(matched))
}

// NeighborhoodDetail renders one detail section per distinct apartment in
// dong, in first-appearance order.
func NeighborhoodDetail(records []model.PermitRecord, dong string) string {
	var (
		order  []string
		groups = make(map[string][]model.PermitRecord)
	)
	for _, r := range records {
		if r.NeighborhoodName != dong {
			continue
		}
		if _, ok := groups[r.ApartmentName]; !ok {
			order = append(order, r.ApartmentName)
		}
		groups[r.ApartmentName] = append(groups[r.ApartmentName], r)
	}
	if len(order) == 0 {
		return fmt.Sprintf("❌ 해당 동의 데이터가 없습니다: %s", dong)
	}

	lines := []string{fmt.Sprintf("\n🏘️ '%s' 내 아파트 정보 (총 %d개 건물)\n", dong, len(order))}
	for _, apt := range order {
		lines = append(lines, "\n🏢 "+apt, DetailTable(groups[apt]))
	}
	return strings.Join(lines, "\n")
}

// NeighborhoodSummary renders permit counts per dong.
func NeighborhoodSummary(records []model.PermitRecord) string {
	counts := CountByNeighborhood(records)
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Neighborhood, strconv.Itoa(c.Count)})
	}
	return "\n📊 동별 상세 통계:\n" + RenderTable([]string{"동", "건수"}, rows)
}

// BuildingSummary renders permit counts per (dong, apartment).
func BuildingSummary(records []model.PermitRecord) string {
	counts := CountByBuilding(records)
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Neighborhood, c.Apartment, strconv.Itoa(c.Count)})
	}
	return "\n📊 아파트 상세 통계:\n" + RenderTable([]string{"동", "아파트명", "건수"}, rows)
}

// MessageHeader is prepended to every chat report. districts is the number
// of districts combined into the report; zero omits the count.
func MessageHeader(begin, end string, districts int) string {
	title := "📌 서울시 토지거래허가 현황"
	if districts > 0 {
		title += fmt.Sprintf(" (%d개 구 통합)", districts)
	}
	return fmt.Sprintf("%s\n📅 검색 기간: %s ~ %s\n", title, begin, end)
}
