package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/eventbus"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

// memStore - хранилище в памяти для тестов сервисов. tx игнорируется:
// memTxManager выполняет транзакции строго по одной и откатывает их при ошибке.
// Гонки за блокировки строк здесь не воспроизводятся, их проверяют интеграционные тесты.
type memStore struct {
	mu sync.Mutex

	types        map[uint64]entities.EquipmentType
	models       map[uint64]entities.EquipmentModel
	units        map[string]entities.EquipmentUnit
	users        map[uint64]entities.User
	reservations map[uint64]entities.Reservation
	scans        []entities.ScanEvent

	nextID uint64

	// Сколько следующих AssignTag вернут ErrConflict, как при проигранной гонке за UNIQUE.
	tagConflicts int
}

func newMemStore() *memStore {
	return &memStore{
		types:        map[uint64]entities.EquipmentType{},
		models:       map[uint64]entities.EquipmentModel{},
		units:        map[string]entities.EquipmentUnit{},
		users:        map[uint64]entities.User{},
		reservations: map[uint64]entities.Reservation{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addType(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.types[id] = entities.EquipmentType{ID: id, Name: name}
	return id
}

func (s *memStore) addModel(typeID uint64, name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.models[id] = entities.EquipmentModel{ID: id, TypeID: typeID, Name: name}
	return id
}

func (s *memStore) addUnit(serial string, modelID uint64, status constants.MaintenanceStatus, tagID *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[serial] = entities.EquipmentUnit{
		SerialID:          serial,
		ModelID:           modelID,
		TypeID:            s.models[modelID].TypeID,
		MaintenanceStatus: status,
		UsageCondition:    constants.ConditionNew,
		TagID:             tagID,
	}
}

func (s *memStore) addUser(role constants.Role) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = entities.User{ID: id, Fio: fmt.Sprintf("user-%d", id), Email: fmt.Sprintf("u%d@lab.test", id), Role: role}
	return id
}

func (s *memStore) unit(serial string) entities.EquipmentUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units[serial]
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

func tagPtr(id int) *int { return &id }

// --- транзакции ---

type memTxManager struct {
	mu    sync.Mutex
	store *memStore
}

// RunInTransaction откатывает store к снимку, если fn вернула ошибку.
func (m *memTxManager) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return fn(nil)
	}
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &memStore{
		types:        make(map[uint64]entities.EquipmentType, len(s.types)),
		models:       make(map[uint64]entities.EquipmentModel, len(s.models)),
		units:        make(map[string]entities.EquipmentUnit, len(s.units)),
		users:        make(map[uint64]entities.User, len(s.users)),
		reservations: make(map[uint64]entities.Reservation, len(s.reservations)),
		scans:        append([]entities.ScanEvent(nil), s.scans...),
		nextID:       s.nextID,
	}
	for k, v := range s.types {
		snap.types[k] = v
	}
	for k, v := range s.models {
		snap.models[k] = v
	}
	for k, v := range s.units {
		snap.units[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.reservations {
		v.Lines = append([]entities.ReservationLine(nil), v.Lines...)
		snap.reservations[k] = v
	}
	return snap
}

// restore возвращает данные снимка. Счетчик id не откатывается, как и последовательности в Postgres.
func (s *memStore) restore(snap *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types, s.models, s.units = snap.types, snap.models, snap.units
	s.users, s.reservations, s.scans = snap.users, snap.reservations, snap.scans
}

// --- модели ---

type memModelRepo struct{ s *memStore }

func (r memModelRepo) GetModels(context.Context) ([]entities.EquipmentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.EquipmentModel, 0, len(r.s.models))
	for _, m := range r.s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memModelRepo) FindModel(_ context.Context, _ pgx.Tx, id uint64) (*entities.EquipmentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.models[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (r memModelRepo) LockModels(_ context.Context, _ pgx.Tx, ids []uint64) (map[uint64]entities.EquipmentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uint64]entities.EquipmentModel, len(ids))
	for _, id := range ids {
		if m, ok := r.s.models[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r memModelRepo) CreateModel(_ context.Context, model entities.EquipmentModel) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	model.ID = r.s.id()
	r.s.models[model.ID] = model
	return model.ID, nil
}

func (r memModelRepo) UpdateModel(_ context.Context, id uint64, name string, photoRef *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.models[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if name != "" {
		m.Name = name
	}
	if photoRef != nil {
		m.PhotoRef = photoRef
	}
	r.s.models[id] = m
	return nil
}

func (r memModelRepo) DeleteModel(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.models[id]; !ok {
		return apperrors.ErrNotFound
	}
	for _, u := range r.s.units {
		if u.ModelID == id {
			return apperrors.NewValidationError(apperrors.ReasonModelInUse, "модель %d используется", id)
		}
	}
	delete(r.s.models, id)
	return nil
}

// --- типы ---

type memTypeRepo struct{ s *memStore }

func (r memTypeRepo) GetTypes(context.Context) ([]entities.EquipmentType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.EquipmentType, 0, len(r.s.types))
	for _, t := range r.s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTypeRepo) FindType(_ context.Context, id uint64) (*entities.EquipmentType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.types[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r memTypeRepo) CreateType(_ context.Context, name string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.s.id()
	r.s.types[id] = entities.EquipmentType{ID: id, Name: name}
	return id, nil
}

// --- экземпляры ---

type memEquipmentRepo struct{ s *memStore }

func (r memEquipmentRepo) GetUnits(_ context.Context, _ types.Filter) ([]entities.EquipmentUnit, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.EquipmentUnit, 0, len(r.s.units))
	for _, u := range r.s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialID < out[j].SerialID })
	return out, uint64(len(out)), nil
}

func (r memEquipmentRepo) FindUnit(_ context.Context, _ pgx.Tx, serialID string) (*entities.EquipmentUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[serialID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r memEquipmentRepo) FindUnitByTagForUpdate(_ context.Context, _ pgx.Tx, tagID int) (*entities.EquipmentUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.units {
		if u.TagID != nil && *u.TagID == tagID {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memEquipmentRepo) CreateUnit(_ context.Context, _ pgx.Tx, unit entities.EquipmentUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.units[unit.SerialID]; ok {
		return apperrors.NewInvalidInputError("Экземпляр с серийным номером %q уже существует", unit.SerialID)
	}
	r.s.units[unit.SerialID] = unit
	return nil
}

func (r memEquipmentRepo) UpdateUnit(_ context.Context, _ pgx.Tx, unit entities.EquipmentUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.units[unit.SerialID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.units[unit.SerialID] = unit
	return nil
}

func (r memEquipmentRepo) UpdateLocation(_ context.Context, _ pgx.Tx, serialID string, location *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[serialID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.CurrentLocation = location
	r.s.units[serialID] = u
	return nil
}

func (r memEquipmentRepo) AssignTag(_ context.Context, _ pgx.Tx, serialID string, tagID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tagConflicts > 0 {
		r.s.tagConflicts--
		return fmt.Errorf("метка экземпляра: %w", apperrors.ErrConflict)
	}
	for _, u := range r.s.units {
		if u.TagID != nil && *u.TagID == tagID {
			return fmt.Errorf("метка экземпляра: %w", apperrors.ErrConflict)
		}
	}
	u, ok := r.s.units[serialID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.TagID = tagPtr(tagID)
	r.s.units[serialID] = u
	return nil
}

func (r memEquipmentRepo) CountReadyUnits(_ context.Context, _ pgx.Tx, modelID uint64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.units {
		if u.ModelID == modelID && u.IsReady() {
			n++
		}
	}
	return n, nil
}

func (r memEquipmentRepo) ListAssignedTags(_ context.Context, _ pgx.Tx, tagRange constants.TagRange) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int
	for _, u := range r.s.units {
		if u.TagID != nil && tagRange.Contains(*u.TagID) {
			out = append(out, *u.TagID)
		}
	}
	return out, nil
}

// --- пользователи ---

type memUserRepo struct{ s *memStore }

func (r memUserRepo) FindUser(_ context.Context, _ pgx.Tx, id uint64) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r memUserRepo) LockUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.FindUser(ctx, tx, id)
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memUserRepo) CreateUser(_ context.Context, user *entities.User) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return 0, apperrors.NewInvalidInputError("Пользователь с email %q уже существует", user.Email)
		}
	}
	user.ID = r.s.id()
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r memUserRepo) AssignTag(_ context.Context, _ pgx.Tx, userID uint64, tagID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.TagID != nil && *u.TagID == tagID {
			return fmt.Errorf("метка пользователя: %w", apperrors.ErrConflict)
		}
	}
	u, ok := r.s.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.TagID = tagPtr(tagID)
	r.s.users[userID] = u
	return nil
}

func (r memUserRepo) ListAssignedTags(_ context.Context, _ pgx.Tx, tagRange constants.TagRange) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int
	for _, u := range r.s.users {
		if u.TagID != nil && tagRange.Contains(*u.TagID) {
			out = append(out, *u.TagID)
		}
	}
	return out, nil
}

// --- брони ---

type memReservationRepo struct{ s *memStore }

func (r memReservationRepo) SumReservedQuantity(_ context.Context, _ pgx.Tx, modelID uint64, dr types.DateRange) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, res := range r.s.reservations {
		if !res.Status.IsActive() || !res.Range().Overlaps(dr) {
			continue
		}
		for _, l := range res.Lines {
			if l.ModelID == modelID {
				total += l.Quantity
			}
		}
	}
	return total, nil
}

func (r memReservationRepo) SumUserReservedQuantity(_ context.Context, _ pgx.Tx, userID uint64, dr types.DateRange) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, res := range r.s.reservations {
		if res.RequesterID != userID || !res.Status.IsActive() || !res.Range().Overlaps(dr) {
			continue
		}
		for _, l := range res.Lines {
			total += l.Quantity
		}
	}
	return total, nil
}

func (r memReservationRepo) CreateReservation(_ context.Context, _ pgx.Tx, reservation *entities.Reservation) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reservation.ID = r.s.id()
	now := time.Now()
	reservation.CreatedAt = &now
	for i := range reservation.Lines {
		reservation.Lines[i].ID = r.s.id()
		reservation.Lines[i].ReservationID = reservation.ID
	}
	stored := *reservation
	stored.Lines = append([]entities.ReservationLine(nil), reservation.Lines...)
	r.s.reservations[reservation.ID] = stored
	return reservation.ID, nil
}

func (r memReservationRepo) FindReservation(_ context.Context, _ pgx.Tx, id uint64) (*entities.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	res.Lines = append([]entities.ReservationLine(nil), res.Lines...)
	return &res, nil
}

func (r memReservationRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status constants.ReservationStatus, responderID *uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	res.Status = status
	res.ResponderID = responderID
	r.s.reservations[id] = res
	return nil
}

func (r memReservationRepo) GetUserReservations(_ context.Context, userID uint64, _ types.Filter) ([]entities.Reservation, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Reservation
	for _, res := range r.s.reservations {
		if res.RequesterID == userID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

// --- журнал сканов ---

type memScanRepo struct{ s *memStore }

func (r memScanRepo) FindLastByTag(_ context.Context, _ pgx.Tx, tagID int) (*entities.ScanEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history := r.s.scansByTag(tagID)
	if len(history) == 0 {
		return nil, apperrors.ErrNotFound
	}
	e := history[0]
	return &e, nil
}

func (r memScanRepo) CreateScanEvent(_ context.Context, _ pgx.Tx, event *entities.ScanEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.ID = r.s.id()
	r.s.scans = append(r.s.scans, *event)
	return nil
}

func (r memScanRepo) GetByTag(_ context.Context, tagID int, limit uint64) ([]entities.ScanEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history := r.s.scansByTag(tagID)
	if uint64(len(history)) > limit {
		history = history[:limit]
	}
	return history, nil
}

// scansByTag - события метки в порядке запроса репозитория: scan_time DESC, id DESC.
func (s *memStore) scansByTag(tagID int) []entities.ScanEvent {
	var out []entities.ScanEvent
	for _, e := range s.scans {
		if e.EquipmentTagID == tagID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScanTime.Equal(out[j].ScanTime) {
			return out[i].ScanTime.After(out[j].ScanTime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// --- кеш ---

type memCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	c.ttl[key] = expiration
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttl, k)
	}
	return nil
}

func (c *memCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if v, ok := c.data[key]; ok {
		_, _ = fmt.Sscan(v, &n)
	}
	n++
	c.data[key] = fmt.Sprint(n)
	return n, nil
}

func (c *memCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl[key] = expiration
	return nil
}

// --- события ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

func (p *recordingPublisher) last() eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}
