package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-system/pkg/constants"
)

// true - полностью очистить каталог и записать с нуля.
// false - только добавить недостающее.
const fullSyncCatalog = false

func seedEquipmentTypes(ctx context.Context, tx pgx.Tx) (map[string]uint64, error) {
	log.Println("  - Наполнение таблицы 'equipment_types'...")

	ids := make(map[string]uint64, len(equipmentTypesData))
	for _, name := range equipmentTypesData {
		var id uint64
		err := tx.QueryRow(ctx,
			`INSERT INTO equipment_types (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`, name,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("тип %q: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

func seedEquipmentModels(ctx context.Context, tx pgx.Tx, typeIDs map[string]uint64) ([]uint64, error) {
	log.Println("  - Наполнение таблицы 'equipment_models'...")

	ids := make([]uint64, 0, len(equipmentModelsData))
	for _, m := range equipmentModelsData {
		typeID, ok := typeIDs[m.Type]
		if !ok {
			return nil, fmt.Errorf("модель %q ссылается на неизвестный тип %q", m.Name, m.Type)
		}
		var photo *string
		if m.PhotoRef != "" {
			photo = &m.PhotoRef
		}

		var id uint64
		err := tx.QueryRow(ctx, `SELECT id FROM equipment_models WHERE name = $1 AND type_id = $2`, m.Name, typeID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx,
				`INSERT INTO equipment_models (type_id, name, photo_ref) VALUES ($1, $2, $3) RETURNING id`,
				typeID, m.Name, photo,
			).Scan(&id)
		}
		if err != nil {
			return nil, fmt.Errorf("модель %q: %w", m.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedEquipmentUnits создает экземпляры с последовательными метками оборудования.
func seedEquipmentUnits(ctx context.Context, tx pgx.Tx, modelIDs []uint64) (int, error) {
	log.Println("  - Наполнение таблицы 'equipment_units'...")

	var nextTag int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(tag_id) + 1, 0) FROM equipment_units`).Scan(&nextTag); err != nil {
		return 0, err
	}
	equipment, _ := constants.TagNamespaceEquipment.Range()

	created := 0
	for i, modelID := range modelIDs {
		if i >= len(unitsPerModel) {
			break
		}
		plan := unitsPerModel[i]
		for n := 0; n < plan.Ready+plan.UnderRepair; n++ {
			status := constants.MaintenanceReady
			if n >= plan.Ready {
				status = constants.MaintenanceUnderRepair
			}
			serial := fmt.Sprintf("SN-%03d-%03d", modelID, n+1)

			var tag *int
			if equipment.Contains(nextTag) {
				t := nextTag
				tag = &t
			}
			result, err := tx.Exec(ctx,
				`INSERT INTO equipment_units (serial_id, model_id, type_id, maintenance_status, tag_id)
				 SELECT $1, m.id, m.type_id, $2, $3 FROM equipment_models m WHERE m.id = $4
				 ON CONFLICT (serial_id) DO NOTHING`,
				serial, status, tag, modelID,
			)
			if err != nil {
				return created, fmt.Errorf("экземпляр %s: %w", serial, err)
			}
			if result.RowsAffected() > 0 {
				created++
				nextTag++
			}
		}
	}
	return created, nil
}

// SeedCatalog наполняет типы, модели и экземпляры оборудования.
func SeedCatalog(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("▶️  Запуск наполнения каталога оборудования...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if fullSyncCatalog {
		log.Println("    - Стратегия: Полная перезапись (TRUNCATE)")
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE equipment_types RESTART IDENTITY CASCADE"); err != nil {
			return err
		}
	}

	typeIDs, err := seedEquipmentTypes(ctx, tx)
	if err != nil {
		return err
	}
	modelIDs, err := seedEquipmentModels(ctx, tx, typeIDs)
	if err != nil {
		return err
	}
	created, err := seedEquipmentUnits(ctx, tx, modelIDs)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("✅ Каталог готов: типов %d, моделей %d, новых экземпляров %d", len(typeIDs), len(modelIDs), created)
	return nil
}
