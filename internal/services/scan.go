package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/events"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

const defaultScanHistoryLimit = 100

type ScanServiceInterface interface {
	IngestScan(ctx context.Context, tagHex, readerID string, scanTime time.Time) (*entities.ScanEvent, error)
	GetScanHistory(ctx context.Context, tagHex string, limit uint64) ([]entities.ScanEvent, error)
}

// ScanService превращает пинги антенн в переходы walk-in / walk-out.
type ScanService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	scanRepo      repositories.ScanEventRepositoryInterface
	publisher     EventPublisher
	logger        *zap.Logger
	retries       int
	now           func() time.Time
}

func NewScanService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	scanRepo repositories.ScanEventRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
	retries int,
) *ScanService {
	if retries <= 0 {
		retries = DefaultConflictRetries
	}
	return &ScanService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		scanRepo:      scanRepo,
		publisher:     publisherOrNoop(publisher),
		logger:        logger,
		retries:       retries,
		now:           time.Now,
	}
}

// ClassifyScan возвращает true для walk-in.
// Walk-out - только повторный пинг той же антенны после walk-in у нее же.
// Смена антенны всегда считается входом в новую комнату, даже если выход из старой пропущен.
func ClassifyScan(last *entities.ScanEvent, readerID string) bool {
	if last != nil && last.LocationReaderID == readerID && last.IsWalkIn {
		return false
	}
	return true
}

func parseEquipmentTag(tagHex string) (int, error) {
	tagID, err := entities.ParseTagID(tagHex)
	if err != nil {
		return 0, apperrors.NewValidationError(apperrors.ReasonInvalidTag, "%s", err.Error())
	}
	r, _ := constants.TagNamespaceEquipment.Range()
	if !r.Contains(tagID) {
		return 0, apperrors.NewValidationError(apperrors.ReasonInvalidTag,
			"Метка %s не из пространства оборудования", entities.FormatTagID(tagID))
	}
	return tagID, nil
}

// IngestScan записывает ровно одно событие и обновляет текущее местоположение экземпляра.
// Строка экземпляра блокируется, поэтому пинги одной метки классифицируются строго по очереди.
func (s *ScanService) IngestScan(ctx context.Context, tagHex, readerID string, scanTime time.Time) (*entities.ScanEvent, error) {
	tagID, err := parseEquipmentTag(tagHex)
	if err != nil {
		return nil, err
	}
	readerID = strings.TrimSpace(readerID)
	if readerID == "" {
		return nil, apperrors.NewInvalidInputError("Не указан идентификатор антенны")
	}
	if scanTime.IsZero() {
		scanTime = s.now()
	}

	var (
		event    *entities.ScanEvent
		serialID string
	)
	err = withConflictRetry(ctx, s.logger, s.retries, "IngestScan", func() error {
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			unit, err := s.equipmentRepo.FindUnitByTagForUpdate(ctx, tx, tagID)
			if err != nil {
				return err
			}

			last, err := s.scanRepo.FindLastByTag(ctx, tx, tagID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}

			// Опоздавший пинг не может встать в журнал раньше последнего события:
			// иначе текущее местоположение разойдется с самым свежим событием.
			eventTime := scanTime
			if last != nil && eventTime.Before(last.ScanTime) {
				s.logger.Debug("IngestScan: пинг пришел с опозданием, время подтянуто к последнему событию",
					zap.String("tag", entities.FormatTagID(tagID)),
					zap.Time("scanTime", scanTime),
					zap.Time("lastScanTime", last.ScanTime),
				)
				eventTime = last.ScanTime
			}

			e := &entities.ScanEvent{
				EquipmentTagID:   tagID,
				ScanTime:         eventTime,
				IsWalkIn:         ClassifyScan(last, readerID),
				LocationReaderID: readerID,
			}
			if err := s.scanRepo.CreateScanEvent(ctx, tx, e); err != nil {
				return err
			}

			var location *string
			if e.IsWalkIn {
				location = &readerID
			}
			if err := s.equipmentRepo.UpdateLocation(ctx, tx, unit.SerialID, location); err != nil {
				return err
			}
			event, serialID = e, unit.SerialID
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("IngestScan: неизвестная метка", zap.String("tag", tagHex), zap.String("reader", readerID))
		} else {
			s.logger.Error("IngestScan: ошибка", zap.String("tag", tagHex), zap.String("reader", readerID), zap.Error(err))
		}
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewScanClassified(entities.FormatTagID(tagID), serialID, readerID, event.IsWalkIn, event.ScanTime))
	s.logger.Debug("Скан классифицирован",
		zap.String("tag", entities.FormatTagID(tagID)),
		zap.String("serialID", serialID),
		zap.String("reader", readerID),
		zap.Bool("walkIn", event.IsWalkIn),
	)
	return event, nil
}

func (s *ScanService) GetScanHistory(ctx context.Context, tagHex string, limit uint64) ([]entities.ScanEvent, error) {
	tagID, err := parseEquipmentTag(tagHex)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultScanHistoryLimit
	}
	return s.scanRepo.GetByTag(ctx, tagID, limit)
}
