package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	apperrors "inventory-system/pkg/errors"
)

type EquipmentImportServiceInterface interface {
	ImportUnits(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error)
}

// EquipmentImportService загружает экземпляры из .xlsx и сразу выдает каждому метку.
// Ошибка одной строки не останавливает импорт, она попадает в отчет.
type EquipmentImportService struct {
	equipment EquipmentServiceInterface
	tags      TagAllocatorServiceInterface
	logger    *zap.Logger
}

func NewEquipmentImportService(equipment EquipmentServiceInterface, tags TagAllocatorServiceInterface, logger *zap.Logger) *EquipmentImportService {
	return &EquipmentImportService{equipment: equipment, tags: tags, logger: logger}
}

type importColumns struct {
	serial, model, condition, homes int
}

// findHeader ищет строку заголовков: в ней должны быть серийный номер и модель.
func findHeader(rows [][]string) (int, importColumns, bool) {
	for rIdx, row := range rows {
		cols := importColumns{serial: -1, model: -1, condition: -1, homes: -1}
		for cIdx, name := range row {
			c := strings.ToLower(strings.TrimSpace(name))
			switch {
			case strings.Contains(c, "serial") || strings.Contains(c, "серийн"):
				cols.serial = cIdx
			case strings.Contains(c, "model") || strings.Contains(c, "модель"):
				cols.model = cIdx
			case strings.Contains(c, "condition") || strings.Contains(c, "состояние"):
				cols.condition = cIdx
			case strings.Contains(c, "home") || strings.Contains(c, "место"):
				cols.homes = cIdx
			}
		}
		if cols.serial != -1 && cols.model != -1 {
			return rIdx, cols, true
		}
	}
	return -1, importColumns{}, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func splitLocations(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
}

func (s *EquipmentImportService) ImportUnits(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Не удалось прочитать файл xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInvalidInputError("В файле нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Не удалось прочитать лист %q: %v", sheets[0], err)
	}

	headerRow, cols, ok := findHeader(rows)
	if !ok {
		return nil, apperrors.NewInvalidInputError("Не найдена строка заголовков: нужны колонки serial и model_id")
	}

	result := &dto.ImportResultDTO{Errors: make([]dto.ImportRowErrorDTO, 0)}
	fail := func(line int, err error) {
		result.Errors = append(result.Errors, dto.ImportRowErrorDTO{Row: line, Message: err.Error()})
	}

	for i := headerRow + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		row := rows[i]
		line := i + 1

		serial := cell(row, cols.serial)
		if serial == "" {
			continue
		}
		modelID, err := strconv.ParseUint(cell(row, cols.model), 10, 64)
		if err != nil {
			fail(line, fmt.Errorf("неверный model_id %q", cell(row, cols.model)))
			continue
		}

		payload := dto.CreateEquipmentDTO{
			SerialID:      serial,
			ModelID:       modelID,
			HomeLocations: splitLocations(cell(row, cols.homes)),
		}
		if c := cell(row, cols.condition); c != "" {
			payload.UsageCondition = null.StringFrom(c)
		}

		if _, err := s.equipment.CreateUnit(ctx, payload); err != nil {
			fail(line, err)
			continue
		}
		if _, err := s.tags.AssignEquipmentTag(ctx, serial); err != nil {
			fail(line, fmt.Errorf("экземпляр создан, но метка не выдана: %w", err))
		}
		result.Created++
	}

	s.logger.Info("Импорт экземпляров завершен",
		zap.Int("created", result.Created),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}
