package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

// buildWorkbook собирает xlsx в памяти: первая строка - заголовок, дальше данные.
func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func newImportEnv(t *testing.T) (*memStore, *EquipmentImportService, uint64) {
	t.Helper()
	store := newMemStore()
	typeID := store.addType("Барометр")
	modelID := store.addModel(typeID, "Barometer-X")
	logger := zap.NewNop()
	tx := &memTxManager{store: store}
	equipment := NewEquipmentService(tx, memEquipmentRepo{store}, memModelRepo{store}, logger)
	tags := NewTagAllocatorService(tx, memEquipmentRepo{store}, memUserRepo{store}, nil, logger, DefaultConflictRetries)
	return store, NewEquipmentImportService(equipment, tags, logger), modelID
}

func TestImportUnits(t *testing.T) {
	store, svc, modelID := newImportEnv(t)
	model := fmt.Sprint(modelID)

	buf := buildWorkbook(t, [][]interface{}{
		{"Инвентаризация лаборатории"},
		{"Serial", "Model ID", "Condition", "Home locations"},
		{"BX-100", model, "Used", "R101; R102"},
		{"BX-101", model, "", ""},
		{"", model, "", ""},
		{"BX-102", "abc", "", ""},
		{"BX-103", "9999", "", ""},
		{"BX-100", model, "", ""},
		{"BX-104", model, "Broken", ""},
	})

	result, err := svc.ImportUnits(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 4)

	rows := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{6, 7, 8, 9}, rows, "номера строк как в Excel")

	first := store.unit("BX-100")
	assert.Equal(t, constants.ConditionUsed, first.UsageCondition)
	assert.Equal(t, []string{"R101", "R102"}, first.HomeLocations)
	require.NotNil(t, first.TagID)
	assert.Equal(t, 0, *first.TagID)

	second := store.unit("BX-101")
	require.NotNil(t, second.TagID)
	assert.Equal(t, 1, *second.TagID)
	assert.Equal(t, constants.ConditionNew, second.UsageCondition)
}

func TestImportUnits_BadInput(t *testing.T) {
	_, svc, _ := newImportEnv(t)

	_, err := svc.ImportUnits(context.Background(), strings.NewReader("не xlsx"))
	requireReason(t, err, apperrors.ReasonInvalidInput)

	buf := buildWorkbook(t, [][]interface{}{
		{"name", "comment"},
		{"x", "y"},
	})
	_, err = svc.ImportUnits(context.Background(), buf)
	requireReason(t, err, apperrors.ReasonInvalidInput)
}

func TestFindHeader(t *testing.T) {
	idx, cols, ok := findHeader([][]string{
		{"отчет"},
		{"Модель", "Серийный номер", "Место хранения"},
	})
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1, cols.serial)
	assert.Equal(t, 0, cols.model)
	assert.Equal(t, 2, cols.homes)
	assert.Equal(t, -1, cols.condition)
}
