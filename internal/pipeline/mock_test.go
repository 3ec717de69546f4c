package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/landpermit-cli/internal/model"
	"github.com/sells-group/landpermit-cli/pkg/geocode"
)

// --- Geocode Mock ---

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) SearchAddress(ctx context.Context, query string) (*geocode.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.SearchResponse), args.Error(1)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchPermits(ctx context.Context, districtCode, begin, end string) (model.PermitBatch, error) {
	args := m.Called(ctx, districtCode, begin, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.PermitBatch), args.Error(1)
}

// --- Fixtures ---

func buildingResponse(name string) *geocode.SearchResponse {
	return &geocode.SearchResponse{
		Documents: []geocode.Document{{
			AddressName: "서울 서초구 반포동 2-12",
			RoadAddress: &geocode.RoadAddress{BuildingName: &name},
		}},
	}
}

func unnamedRoadAddressResponse() *geocode.SearchResponse {
	return &geocode.SearchResponse{
		Documents: []geocode.Document{{
			AddressName: "서울 서초구 우면동 1",
			RoadAddress: &geocode.RoadAddress{AddressName: "서울 서초구 태봉로 114"},
		}},
	}
}

func noRoadAddressResponse() *geocode.SearchResponse {
	return &geocode.SearchResponse{
		Documents: []geocode.Document{{AddressName: "서울 서초구 우면동 1"}},
	}
}

func emptyResponse() *geocode.SearchResponse {
	return &geocode.SearchResponse{}
}

func permit(serial, address string) model.PermitRecord {
	return model.PermitRecord{
		Category:   "신규",
		UsePurpose: model.ResidentialUse,
		Address:    address,
		SerialNo:   serial,
	}
}
