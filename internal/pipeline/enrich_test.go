package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/landpermit-cli/internal/addrcache"
	"github.com/sells-group/landpermit-cli/internal/model"
)

// faultyStore wraps a MemoryStore with injectable Load and Flush errors.
type faultyStore struct {
	*addrcache.MemoryStore
	loadErr  error
	flushErr error
}

func (s *faultyStore) Load(ctx context.Context) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *faultyStore) Flush(ctx context.Context) error {
	if s.flushErr != nil {
		return s.flushErr
	}
	return s.MemoryStore.Flush(ctx)
}

func newEnricher(geo *mockGeocoder, cache addrcache.Store) *Enricher {
	return NewEnricher(NewResolver(geo, cache, 0), cache, "")
}

func TestEnrich_BuildingName(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, "서울특별시 서초구 반포동 2-12").
		Return(buildingResponse("아크로리버파크"), nil).Once()
	cache := addrcache.NewMemory(nil)

	batch := model.PermitBatch{permit("2025-0001", "  서초구 반포동 2-12 ")}
	require.NoError(t, newEnricher(geo, cache).Enrich(context.Background(), batch))

	rec := batch[0]
	assert.Equal(t, "반포동", rec.NeighborhoodName)
	assert.Equal(t, "반포동 아크로리버파크", rec.ApartmentName)
	assert.True(t, rec.Building.OK())
	assert.Equal(t, 1, cache.Flushes())

	stored, ok := cache.Get("서울특별시 서초구 반포동 2-12")
	require.True(t, ok)
	assert.Equal(t, "아크로리버파크", stored)
}

func TestEnrich_FailureLabels(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, "서울특별시 서초구 우면동 1").Return(noRoadAddressResponse(), nil)
	geo.On("SearchAddress", mock.Anything, "서울특별시 강남구 개포동 9").Return(emptyResponse(), nil)
	geo.On("SearchAddress", mock.Anything, "서울특별시 송파구 잠실동 3").Return(nil, errors.New("timeout"))
	cache := addrcache.NewMemory(nil)

	batch := model.PermitBatch{
		permit("1", "서초구 우면동 1"),
		permit("2", "강남구 개포동 9"),
		permit("3", "송파구 잠실동 3"),
	}
	require.NoError(t, newEnricher(geo, cache).Enrich(context.Background(), batch))

	assert.Equal(t, "우면동 건물명 없음", batch[0].ApartmentName)
	assert.Equal(t, "개포동 주소 검색 실패", batch[1].ApartmentName)
	assert.Equal(t, "잠실동 오류: timeout", batch[2].ApartmentName)
	for _, r := range batch {
		assert.False(t, r.Building.OK())
	}
}

func TestEnrich_SingleTokenAddress(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, "서울특별시 반포동").Return(buildingResponse("래미안"), nil)

	batch := model.PermitBatch{permit("1", "반포동")}
	require.NoError(t, newEnricher(geo, addrcache.NewMemory(nil)).Enrich(context.Background(), batch))

	assert.Empty(t, batch[0].NeighborhoodName)
	assert.Equal(t, "래미안", batch[0].ApartmentName)
}

func TestEnrich_EmptyBuildingName(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, mock.Anything).Return(buildingResponse(""), nil)

	batch := model.PermitBatch{permit("1", "서초구 반포동 1")}
	require.NoError(t, newEnricher(geo, addrcache.NewMemory(nil)).Enrich(context.Background(), batch))

	assert.Equal(t, "반포동", batch[0].NeighborhoodName)
	assert.Empty(t, batch[0].ApartmentName)
	assert.True(t, batch[0].Building.OK())
}

func TestEnrich_SharedAddressLookedUpOnce(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, "서울특별시 서초구 반포동 2-12").
		Return(buildingResponse("아크로리버파크"), nil).Once()

	batch := model.PermitBatch{
		permit("1", "서초구 반포동 2-12"),
		permit("2", "서초구 반포동 2-12"),
	}
	require.NoError(t, newEnricher(geo, addrcache.NewMemory(nil)).Enrich(context.Background(), batch))

	assert.Equal(t, batch[0].ApartmentName, batch[1].ApartmentName)
	geo.AssertExpectations(t)
}

func TestEnrich_CustomCityPrefix(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, "서울 서초구 반포동 1").Return(buildingResponse("x"), nil).Once()
	cache := addrcache.NewMemory(nil)

	e := NewEnricher(NewResolver(geo, cache, 0), cache, "서울")
	require.NoError(t, e.Enrich(context.Background(), model.PermitBatch{permit("1", "서초구 반포동 1")}))
	geo.AssertExpectations(t)
}

func TestEnrich_LoadError(t *testing.T) {
	geo := &mockGeocoder{}
	cache := &faultyStore{MemoryStore: addrcache.NewMemory(nil), loadErr: errors.New("db down")}

	err := newEnricher(geo, cache).Enrich(context.Background(), model.PermitBatch{permit("1", "서초구 반포동 1")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load address cache")
	geo.AssertNotCalled(t, "SearchAddress", mock.Anything, mock.Anything)
}

func TestEnrich_FlushErrorStillEnriches(t *testing.T) {
	geo := &mockGeocoder{}
	geo.On("SearchAddress", mock.Anything, mock.Anything).Return(buildingResponse("래미안"), nil)
	cache := &faultyStore{MemoryStore: addrcache.NewMemory(nil), flushErr: errors.New("disk full")}

	batch := model.PermitBatch{permit("1", "서초구 잠원동 1")}
	err := newEnricher(geo, cache).Enrich(context.Background(), batch)

	var fe *FlushError
	require.ErrorAs(t, err, &fe)
	assert.EqualError(t, fe.Err, "disk full")
	assert.Equal(t, "잠원동 래미안", batch[0].ApartmentName)
}

func TestNeighborhood(t *testing.T) {
	assert.Equal(t, "반포동", Neighborhood("서초구 반포동 2-12"))
	assert.Equal(t, "반포동", Neighborhood("  서초구   반포동 "))
	assert.Empty(t, Neighborhood("서초구"))
	assert.Empty(t, Neighborhood(""))
}

func TestApartmentLabel(t *testing.T) {
	assert.Equal(t, "반포동 래미안", ApartmentLabel("반포동", "래미안"))
	assert.Equal(t, "래미안", ApartmentLabel("", "래미안"))
	assert.Empty(t, ApartmentLabel("반포동", ""))
}
