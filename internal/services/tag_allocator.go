package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/events"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

type TagAllocatorServiceInterface interface {
	NextAvailable(ctx context.Context, namespace constants.TagNamespace) (string, error)
	AssignEquipmentTag(ctx context.Context, serialID string) (string, error)
	AssignUserTag(ctx context.Context, userID uint64) (string, error)
}

// TagAllocatorService выдает идентификаторы RFID-меток из двух непересекающихся диапазонов.
// Поиск свободного id - совет, а не гарантия: уникальность обеспечивает UNIQUE(tag_id) в базе,
// и проигравший гонку писатель пересканирует диапазон и пробует снова.
type TagAllocatorService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	publisher     EventPublisher
	logger        *zap.Logger
	retries       int
}

func NewTagAllocatorService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
	retries int,
) *TagAllocatorService {
	if retries <= 0 {
		retries = DefaultConflictRetries
	}
	return &TagAllocatorService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		publisher:     publisherOrNoop(publisher),
		logger:        logger,
		retries:       retries,
	}
}

// nextFreeTagID возвращает наименьший id диапазона, которого нет среди assigned.
// O(n) по размеру диапазона (не больше 4096) на каждый вызов. Если выдача меток
// станет частой, стоит держать битовую карту свободных id.
func nextFreeTagID(r constants.TagRange, assigned []int) (int, bool) {
	taken := make([]bool, r.Size())
	for _, id := range assigned {
		if r.Contains(id) {
			taken[id-r.Min] = true
		}
	}
	for i, t := range taken {
		if !t {
			return r.Min + i, true
		}
	}
	return 0, false
}

func namespaceRange(namespace constants.TagNamespace) (constants.TagRange, error) {
	r, ok := namespace.Range()
	if !ok {
		return constants.TagRange{}, apperrors.NewInvalidInputError("Неизвестное пространство имен меток %q", namespace)
	}
	return r, nil
}

func (s *TagAllocatorService) listAssigned(ctx context.Context, tx pgx.Tx, namespace constants.TagNamespace, r constants.TagRange) ([]int, error) {
	if namespace == constants.TagNamespaceStudent {
		return s.userRepo.ListAssignedTags(ctx, tx, r)
	}
	return s.equipmentRepo.ListAssignedTags(ctx, tx, r)
}

func (s *TagAllocatorService) next(ctx context.Context, tx pgx.Tx, namespace constants.TagNamespace) (int, error) {
	r, err := namespaceRange(namespace)
	if err != nil {
		return 0, err
	}
	assigned, err := s.listAssigned(ctx, tx, namespace, r)
	if err != nil {
		return 0, err
	}
	id, ok := nextFreeTagID(r, assigned)
	if !ok {
		return 0, apperrors.NewValidationError(apperrors.ReasonTagNamespaceExhausted,
			"В пространстве %s не осталось свободных меток (%d из %d заняты)", namespace, len(assigned), r.Size())
	}
	return id, nil
}

// NextAvailable только подсказывает следующий свободный id, ничего не записывая.
func (s *TagAllocatorService) NextAvailable(ctx context.Context, namespace constants.TagNamespace) (string, error) {
	id, err := s.next(ctx, nil, namespace)
	if err != nil {
		return "", err
	}
	return entities.FormatTagID(id), nil
}

// AssignEquipmentTag выдает экземпляру метку. Уже помеченный экземпляр получает свою же метку.
func (s *TagAllocatorService) AssignEquipmentTag(ctx context.Context, serialID string) (string, error) {
	var (
		tagID    int
		existing bool
	)
	err := withConflictRetry(ctx, s.logger, s.retries, "AssignEquipmentTag", func() error {
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			unit, err := s.equipmentRepo.FindUnit(ctx, tx, serialID)
			if err != nil {
				return err
			}
			if unit.TagID != nil {
				tagID, existing = *unit.TagID, true
				return nil
			}
			id, err := s.next(ctx, tx, constants.TagNamespaceEquipment)
			if err != nil {
				return err
			}
			if err := s.equipmentRepo.AssignTag(ctx, tx, serialID, id); err != nil {
				return err
			}
			tagID, existing = id, false
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("AssignEquipmentTag: не удалось выдать метку", zap.String("serialID", serialID), zap.Error(err))
		}
		return "", err
	}

	hex := entities.FormatTagID(tagID)
	if !existing {
		s.publisher.Publish(ctx, events.NewTagAssigned(string(constants.TagNamespaceEquipment), hex, serialID))
		s.logger.Info("Метка выдана экземпляру", zap.String("serialID", serialID), zap.String("tag", hex))
	}
	return hex, nil
}

// AssignUserTag - то же для студенческого пространства имен.
func (s *TagAllocatorService) AssignUserTag(ctx context.Context, userID uint64) (string, error) {
	var (
		tagID    int
		existing bool
	)
	err := withConflictRetry(ctx, s.logger, s.retries, "AssignUserTag", func() error {
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			user, err := s.userRepo.LockUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			if user.TagID != nil {
				tagID, existing = *user.TagID, true
				return nil
			}
			id, err := s.next(ctx, tx, constants.TagNamespaceStudent)
			if err != nil {
				return err
			}
			if err := s.userRepo.AssignTag(ctx, tx, userID, id); err != nil {
				return err
			}
			tagID, existing = id, false
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("AssignUserTag: не удалось выдать метку", zap.Uint64("userID", userID), zap.Error(err))
		}
		return "", err
	}

	hex := entities.FormatTagID(tagID)
	if !existing {
		s.publisher.Publish(ctx, events.NewTagAssigned(string(constants.TagNamespaceStudent), hex, strconv.FormatUint(userID, 10)))
		s.logger.Info("Метка выдана пользователю", zap.Uint64("userID", userID), zap.String("tag", hex))
	}
	return hex, nil
}
