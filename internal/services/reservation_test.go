package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/events"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

type reservationEnv struct {
	store        *memStore
	publisher    *recordingPublisher
	availability *AvailabilityService
	service      *ReservationService

	barometerType uint64
	barometerX    uint64
	barometerY    uint64
}

// newReservationEnv: тип "Барометр" с моделями X (2 исправных ед. + 1 в ремонте) и Y (3 ед.).
func newReservationEnv(t *testing.T) *reservationEnv {
	t.Helper()
	store := newMemStore()
	env := &reservationEnv{store: store, publisher: &recordingPublisher{}}

	env.barometerType = store.addType("Барометр")
	env.barometerX = store.addModel(env.barometerType, "Barometer-X")
	env.barometerY = store.addModel(env.barometerType, "Barometer-Y")
	store.addUnit("BX-1", env.barometerX, constants.MaintenanceReady, nil)
	store.addUnit("BX-2", env.barometerX, constants.MaintenanceReady, nil)
	store.addUnit("BX-3", env.barometerX, constants.MaintenanceUnderRepair, nil)
	store.addUnit("BY-1", env.barometerY, constants.MaintenanceReady, nil)
	store.addUnit("BY-2", env.barometerY, constants.MaintenanceReady, nil)
	store.addUnit("BY-3", env.barometerY, constants.MaintenanceReady, nil)

	logger := zap.NewNop()
	env.availability = NewAvailabilityService(memModelRepo{store}, memEquipmentRepo{store}, memReservationRepo{store}, logger)
	env.service = NewReservationService(
		&memTxManager{store: store},
		memReservationRepo{store},
		memModelRepo{store},
		memUserRepo{store},
		env.availability,
		env.publisher,
		logger,
		DefaultUserCap,
		DefaultConflictRetries,
	)
	return env
}

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func line(modelID, typeID uint64, qty int) entities.ReservationLine {
	return entities.ReservationLine{ModelID: modelID, TypeID: typeID, Quantity: qty}
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	got, ok := apperrors.IsValidation(err)
	require.True(t, ok, "ожидалась ValidationError, получено %v", err)
	assert.Equal(t, reason, got)
}

func TestCreateReservation_LastUnitsThenExceeds(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	s1 := env.store.addUser(constants.RoleStudent)
	s2 := env.store.addUser(constants.RoleStudent)

	res, err := env.service.CreateReservation(ctx, s1, day(10), day(12), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ReservationRequested, res.Status)
	assert.Nil(t, res.ResponderID)
	assert.NotZero(t, res.ID)

	_, err = env.service.CreateReservation(ctx, s2, day(11), day(13), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 1),
	})
	requireReason(t, err, apperrors.ReasonQuantityExceeds)

	free, err := env.availability.AvailableCount(ctx, env.barometerX, env.barometerType, day(10), day(12))
	require.NoError(t, err)
	assert.Equal(t, 0, free)
	assert.Equal(t, 1, env.store.reservationCount(), "отклоненная бронь не должна записываться")
}

func TestCreateReservation_UserCap(t *testing.T) {
	t.Run("уже две единицы: существующие брони входят в сумму до строк, поэтому отклонена первая строка и вся бронь", func(t *testing.T) {
		env := newReservationEnv(t)
		ctx := context.Background()
		student := env.store.addUser(constants.RoleStudent)

		_, err := env.service.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 2),
		})
		require.NoError(t, err)

		_, err = env.service.CreateReservation(ctx, student, day(11), day(11), []entities.ReservationLine{
			line(env.barometerX, env.barometerType, 1),
			line(env.barometerY, env.barometerType, 1),
		})
		requireReason(t, err, apperrors.ReasonUserCapExceeded)
		assert.Contains(t, err.Error(), "Позиция 1")
	})

	t.Run("одна единица: отклонена вторая строка", func(t *testing.T) {
		env := newReservationEnv(t)
		ctx := context.Background()
		student := env.store.addUser(constants.RoleStudent)

		_, err := env.service.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 1),
		})
		require.NoError(t, err)

		_, err = env.service.CreateReservation(ctx, student, day(12), day(14), []entities.ReservationLine{
			line(env.barometerX, env.barometerType, 1),
			line(env.barometerY, env.barometerType, 1),
		})
		requireReason(t, err, apperrors.ReasonUserCapExceeded)
		assert.Contains(t, err.Error(), "Позиция 2")
		assert.Equal(t, 1, env.store.reservationCount())
	})

	t.Run("непересекающиеся интервалы не суммируются", func(t *testing.T) {
		env := newReservationEnv(t)
		ctx := context.Background()
		student := env.store.addUser(constants.RoleStudent)

		_, err := env.service.CreateReservation(ctx, student, day(1), day(5), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 2),
		})
		require.NoError(t, err)
		_, err = env.service.CreateReservation(ctx, student, day(6), day(9), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 2),
		})
		require.NoError(t, err)
	})

	t.Run("отмененные брони не учитываются", func(t *testing.T) {
		env := newReservationEnv(t)
		ctx := context.Background()
		student := env.store.addUser(constants.RoleStudent)

		first, err := env.service.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 2),
		})
		require.NoError(t, err)
		_, err = env.service.CancelOrRejectReservation(ctx, first.ID, student)
		require.NoError(t, err)

		_, err = env.service.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
			line(env.barometerY, env.barometerType, 2),
		})
		require.NoError(t, err)
	})
}

func TestCreateReservation_FacultyAutoApproved(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	faculty := env.store.addUser(constants.RoleFaculty)

	res, err := env.service.CreateReservation(ctx, faculty, day(10), day(12), []entities.ReservationLine{
		line(env.barometerY, env.barometerType, 3),
	})
	require.NoError(t, err, "лимит на пользователя к преподавателю не применяется")
	assert.Equal(t, constants.ReservationApproved, res.Status)
	require.NotNil(t, res.ResponderID)
	assert.Equal(t, faculty, *res.ResponderID)

	created, ok := env.publisher.last().(events.ReservationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, res.ID, created.ReservationID)
	assert.Equal(t, 3, created.Units)
	assert.Equal(t, "2025-01-10", created.StartDate)
	assert.Equal(t, string(constants.ReservationApproved), created.Status)
}

func TestCreateReservation_AdminIsCapped(t *testing.T) {
	env := newReservationEnv(t)
	admin := env.store.addUser(constants.RoleAdmin)

	res, err := env.service.CreateReservation(context.Background(), admin, day(10), day(12), []entities.ReservationLine{
		line(env.barometerY, env.barometerType, 3),
	})
	assert.Nil(t, res)
	requireReason(t, err, apperrors.ReasonUserCapExceeded)
}

func TestCreateReservation_Validation(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	faculty := env.store.addUser(constants.RoleFaculty)
	otherType := env.store.addType("Термометр")

	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		lines  []entities.ReservationLine
		reason string
	}{
		{"пустая бронь", day(1), day(2), nil, apperrors.ReasonNoLines},
		{"нулевое количество", day(1), day(2), []entities.ReservationLine{line(env.barometerX, env.barometerType, 0)}, apperrors.ReasonInvalidQuantity},
		{"отрицательное количество", day(1), day(2), []entities.ReservationLine{line(env.barometerX, env.barometerType, -1)}, apperrors.ReasonInvalidQuantity},
		{"неизвестная модель", day(1), day(2), []entities.ReservationLine{line(9999, env.barometerType, 1)}, apperrors.ReasonUnknownModel},
		{"чужой тип", day(1), day(2), []entities.ReservationLine{line(env.barometerX, otherType, 1)}, apperrors.ReasonTypeMismatch},
		{"конец раньше начала", day(5), day(2), []entities.ReservationLine{line(env.barometerX, env.barometerType, 1)}, apperrors.ReasonInvalidDateRange},
		{"строки одной модели суммируются", day(1), day(2), []entities.ReservationLine{
			line(env.barometerX, env.barometerType, 1),
			line(env.barometerX, env.barometerType, 2),
		}, apperrors.ReasonQuantityExceeds},
		{"строки проверяются по порядку", day(1), day(2), []entities.ReservationLine{
			line(env.barometerX, env.barometerType, 5),
			line(9999, env.barometerType, 1),
		}, apperrors.ReasonQuantityExceeds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.CreateReservation(ctx, faculty, tt.start, tt.end, tt.lines)
			requireReason(t, err, tt.reason)
		})
	}
	assert.Zero(t, env.store.reservationCount())
	assert.Empty(t, env.publisher.names())
}

func TestCreateReservation_UnknownRequester(t *testing.T) {
	env := newReservationEnv(t)
	_, err := env.service.CreateReservation(context.Background(), 4242, day(1), day(2), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 1),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateReservation_SameDayBoundaryCompetes(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	faculty := env.store.addUser(constants.RoleFaculty)

	_, err := env.service.CreateReservation(ctx, faculty, day(10), day(12), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 2),
	})
	require.NoError(t, err)

	// 12 января занято: границы интервала включительные.
	_, err = env.service.CreateReservation(ctx, faculty, day(12), day(15), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 1),
	})
	requireReason(t, err, apperrors.ReasonQuantityExceeds)

	_, err = env.service.CreateReservation(ctx, faculty, day(13), day(15), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 2),
	})
	require.NoError(t, err)
}

// memTxManager выполняет транзакции по одной, поэтому тест проверяет только итог
// параллельных вызовов, а не блокировки. Гонку на настоящих блокировках Postgres
// проверяет TestCreateReservation_Integration_Race.
func TestCreateReservation_ParallelCallersSequential(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()

	const workers = 12
	students := make([]uint64, workers)
	for i := range students {
		students[i] = env.store.addUser(constants.RoleStudent)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	start := make(chan struct{})
	for _, id := range students {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			<-start
			_, err := env.service.CreateReservation(ctx, id, day(20), day(21), []entities.ReservationLine{
				line(env.barometerX, env.barometerType, 1),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if reason, ok := apperrors.IsValidation(err); ok && reason == apperrors.ReasonQuantityExceeds {
				rejected++
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 2, succeeded, "исправных единиц две")
	assert.Equal(t, workers-2, rejected)

	reserved, err := memReservationRepo{env.store}.SumReservedQuantity(ctx, nil, env.barometerX, types.DateRange{Start: day(20), End: day(21)})
	require.NoError(t, err)
	assert.LessOrEqual(t, reserved, 2)
}

// failingLinesRepo записывает бронь, а затем падает, как при нарушении внешнего ключа строк.
type failingLinesRepo struct{ memReservationRepo }

func (r failingLinesRepo) CreateReservation(ctx context.Context, tx pgx.Tx, reservation *entities.Reservation) (uint64, error) {
	if _, err := r.memReservationRepo.CreateReservation(ctx, tx, reservation); err != nil {
		return 0, err
	}
	return 0, apperrors.WrapStorage("запись строк брони", errors.New("reservation_lines_model_id_fkey"))
}

func TestCreateReservation_StorageFailureRollsBack(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	student := env.store.addUser(constants.RoleStudent)

	svc := NewReservationService(
		&memTxManager{store: env.store},
		failingLinesRepo{memReservationRepo{env.store}},
		memModelRepo{env.store},
		memUserRepo{env.store},
		env.availability,
		env.publisher,
		zap.NewNop(),
		DefaultUserCap,
		DefaultConflictRetries,
	)

	_, err := svc.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 1),
		line(env.barometerY, env.barometerType, 1),
	})
	require.Error(t, err)
	var storageErr *apperrors.StorageError
	assert.True(t, errors.As(err, &storageErr), "сбой хранилища не должен выглядеть как ошибка валидации")
	_, isValidation := apperrors.IsValidation(err)
	assert.False(t, isValidation)

	assert.Zero(t, env.store.reservationCount(), "частично записанная бронь откатывается")
	free, err := env.availability.AvailableCount(ctx, env.barometerX, env.barometerType, day(10), day(12))
	require.NoError(t, err)
	assert.Equal(t, 2, free)
	assert.Empty(t, env.publisher.names(), "после отката событие не публикуется")

	_, err = env.service.CreateReservation(ctx, student, day(10), day(12), []entities.ReservationLine{
		line(env.barometerX, env.barometerType, 2),
	})
	require.NoError(t, err, "откат не оставляет следов в лимите пользователя")
}

func TestApproveReservation(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	student := env.store.addUser(constants.RoleStudent)
	other := env.store.addUser(constants.RoleStudent)
	faculty := env.store.addUser(constants.RoleFaculty)

	res, err := env.service.CreateReservation(ctx, student, day(3), day(4), []entities.ReservationLine{
		line(env.barometerY, env.barometerType, 1),
	})
	require.NoError(t, err)

	_, err = env.service.ApproveReservation(ctx, res.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = env.service.ApproveReservation(ctx, res.ID, student)
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "студент не одобряет собственную бронь")
	_, err = env.service.ApproveReservation(ctx, 9999, faculty)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	approved, err := env.service.ApproveReservation(ctx, res.ID, faculty)
	require.NoError(t, err)
	assert.Equal(t, constants.ReservationApproved, approved.Status)
	require.NotNil(t, approved.ResponderID)
	assert.Equal(t, faculty, *approved.ResponderID)

	changed, ok := env.publisher.last().(events.ReservationStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, student, changed.RequesterID)
	assert.Equal(t, faculty, changed.ActorID)
	assert.Equal(t, string(constants.ReservationRequested), changed.From)
	assert.Equal(t, string(constants.ReservationApproved), changed.To)

	_, err = env.service.ApproveReservation(ctx, res.ID, faculty)
	requireReason(t, err, apperrors.ReasonInvalidTransition)
}

func TestCancelOrRejectReservation(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	student := env.store.addUser(constants.RoleStudent)
	other := env.store.addUser(constants.RoleStudent)
	admin := env.store.addUser(constants.RoleAdmin)

	create := func() *entities.Reservation {
		t.Helper()
		res, err := env.service.CreateReservation(ctx, student, day(7), day(8), []entities.ReservationLine{
			line(env.barometerX, env.barometerType, 1),
		})
		require.NoError(t, err)
		return res
	}

	first := create()
	_, err := env.service.CancelOrRejectReservation(ctx, first.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	cancelled, err := env.service.CancelOrRejectReservation(ctx, first.ID, student)
	require.NoError(t, err)
	assert.Equal(t, constants.ReservationCancelled, cancelled.Status)

	_, err = env.service.CancelOrRejectReservation(ctx, first.ID, student)
	requireReason(t, err, apperrors.ReasonInvalidTransition)

	free, err := env.availability.AvailableCount(ctx, env.barometerX, env.barometerType, day(7), day(8))
	require.NoError(t, err)
	assert.Equal(t, 2, free, "отмененная бронь освобождает единицы")

	second := create()
	rejected, err := env.service.CancelOrRejectReservation(ctx, second.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, constants.ReservationRejected, rejected.Status)
	require.NotNil(t, rejected.ResponderID)
	assert.Equal(t, admin, *rejected.ResponderID)

	stored, err := env.service.GetReservation(ctx, second.ID, student)
	require.NoError(t, err, "строка брони сохраняется после отклонения")
	assert.Equal(t, constants.ReservationRejected, stored.Status)
	assert.Len(t, stored.Lines, 1)
}

func TestGetReservation_Access(t *testing.T) {
	env := newReservationEnv(t)
	ctx := context.Background()
	student := env.store.addUser(constants.RoleStudent)
	other := env.store.addUser(constants.RoleStudent)
	faculty := env.store.addUser(constants.RoleFaculty)

	res, err := env.service.CreateReservation(ctx, student, day(1), day(1), []entities.ReservationLine{
		line(env.barometerY, env.barometerType, 1),
	})
	require.NoError(t, err)

	_, err = env.service.GetReservation(ctx, res.ID, student)
	assert.NoError(t, err)
	_, err = env.service.GetReservation(ctx, res.ID, faculty)
	assert.NoError(t, err)
	_, err = env.service.GetReservation(ctx, res.ID, other)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	list, total, err := env.service.GetUserReservations(ctx, student, types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, res.ID, list[0].ID)
}
