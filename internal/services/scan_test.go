package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/events"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

func TestClassifyScan(t *testing.T) {
	walkInA := &entities.ScanEvent{LocationReaderID: "A", IsWalkIn: true}
	walkOutA := &entities.ScanEvent{LocationReaderID: "A", IsWalkIn: false}

	tests := []struct {
		name   string
		last   *entities.ScanEvent
		reader string
		walkIn bool
	}{
		{"первый скан метки", nil, "A", true},
		{"повтор той же антенны после входа", walkInA, "A", false},
		{"та же антенна после выхода", walkOutA, "A", true},
		{"другая антенна после входа", walkInA, "B", true},
		{"другая антенна после выхода", walkOutA, "B", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.walkIn, ClassifyScan(tt.last, tt.reader))
		})
	}
}

func newScanEnv(t *testing.T) (*memStore, *recordingPublisher, *ScanService) {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	typeID := store.addType("Барометр")
	modelID := store.addModel(typeID, "Barometer-X")
	store.addUnit("BX-1", modelID, constants.MaintenanceReady, tagPtr(0x1A))
	store.addUnit("BX-2", modelID, constants.MaintenanceReady, tagPtr(0x1B))
	svc := NewScanService(&memTxManager{store: store}, memEquipmentRepo{store}, memScanRepo{store}, pub, zap.NewNop(), DefaultConflictRetries)
	return store, pub, svc
}

func TestIngestScan_Sequence(t *testing.T) {
	store, pub, svc := newScanEnv(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	steps := []struct {
		reader   string
		walkIn   bool
		location *string
	}{
		{"A", true, strPtr("A")},
		{"A", false, nil},
		{"B", true, strPtr("B")},
		{"B", false, nil},
	}
	for i, step := range steps {
		event, err := svc.IngestScan(ctx, "001A", step.reader, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, step.walkIn, event.IsWalkIn, "шаг %d", i+1)
		assert.Equal(t, 0x1A, event.EquipmentTagID)
		assert.Equal(t, step.location, store.unit("BX-1").CurrentLocation, "шаг %d", i+1)
	}

	classified, ok := pub.last().(events.ScanClassifiedEvent)
	require.True(t, ok)
	assert.Equal(t, "001A", classified.TagID)
	assert.Equal(t, "BX-1", classified.SerialID)
	assert.False(t, classified.IsWalkIn)

	history, err := svc.GetScanHistory(ctx, "001a", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "B", history[0].LocationReaderID, "история от новых к старым")

	limited, err := svc.GetScanHistory(ctx, "001A", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestIngestScan_MissedWalkOut(t *testing.T) {
	store, _, svc := newScanEnv(t)
	ctx := context.Background()

	first, err := svc.IngestScan(ctx, "001B", "A", time.Time{})
	require.NoError(t, err)
	assert.True(t, first.IsWalkIn)
	assert.False(t, first.ScanTime.IsZero(), "пустое время заменяется текущим")

	second, err := svc.IngestScan(ctx, "001B", "C", time.Time{})
	require.NoError(t, err)
	assert.True(t, second.IsWalkIn, "смена антенны - вход в новую комнату")
	require.NotNil(t, store.unit("BX-2").CurrentLocation)
	assert.Equal(t, "C", *store.unit("BX-2").CurrentLocation)

	// журнал одной метки не влияет на другую
	other, err := svc.IngestScan(ctx, "001A", "C", time.Time{})
	require.NoError(t, err)
	assert.True(t, other.IsWalkIn)
}

// Пинги приходят без гарантии порядка: местоположение всегда совпадает с самым свежим событием журнала.
func TestIngestScan_LatePing(t *testing.T) {
	store, _, svc := newScanEnv(t)
	ctx := context.Background()
	at := func(min int) time.Time { return time.Date(2025, time.March, 3, 9, min, 0, 0, time.UTC) }

	requireLatest := func(t *testing.T, want *entities.ScanEvent) {
		t.Helper()
		history, err := svc.GetScanHistory(ctx, "001A", 1)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, want.ID, history[0].ID, "новое событие должно стать последним")
		if want.IsWalkIn {
			require.NotNil(t, store.unit("BX-1").CurrentLocation)
			assert.Equal(t, want.LocationReaderID, *store.unit("BX-1").CurrentLocation)
		} else {
			assert.Nil(t, store.unit("BX-1").CurrentLocation)
		}
	}

	in, err := svc.IngestScan(ctx, "001A", "A", at(2))
	require.NoError(t, err)
	require.True(t, in.IsWalkIn)
	requireLatest(t, in)

	late, err := svc.IngestScan(ctx, "001A", "A", at(1))
	require.NoError(t, err)
	assert.False(t, late.IsWalkIn)
	assert.Equal(t, at(2), late.ScanTime, "время опоздавшего пинга подтягивается к последнему событию")
	requireLatest(t, late)

	later, err := svc.IngestScan(ctx, "001A", "B", at(0))
	require.NoError(t, err)
	assert.True(t, later.IsWalkIn)
	requireLatest(t, later)

	fresh, err := svc.IngestScan(ctx, "001A", "B", at(5))
	require.NoError(t, err)
	assert.False(t, fresh.IsWalkIn)
	assert.Equal(t, at(5), fresh.ScanTime, "своевременный пинг сохраняет свое время")
	requireLatest(t, fresh)
}

func TestIngestScan_Errors(t *testing.T) {
	_, pub, svc := newScanEnv(t)
	ctx := context.Background()

	for _, tag := range []string{"", "1A", "00001A", "ZZZZ", "1000", "FFFF"} {
		_, err := svc.IngestScan(ctx, tag, "A", time.Time{})
		requireReason(t, err, apperrors.ReasonInvalidTag)
	}

	_, err := svc.IngestScan(ctx, "0FFF", "A", time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.IngestScan(ctx, "001A", "  ", time.Time{})
	requireReason(t, err, apperrors.ReasonInvalidInput)

	assert.Empty(t, pub.names())
}

func strPtr(s string) *string { return &s }
