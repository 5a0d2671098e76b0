// Package store adapts the gorm models to the interfaces the directory
// services consume.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldsOptionName is the options row holding the persisted registry snapshot.
const FieldsOptionName = "directory_fields_cache"

// FieldStore reads form field definitions.
type FieldStore struct {
	db *gorm.DB
}

func NewFieldStore(db *gorm.DB) *FieldStore {
	return &FieldStore{db: db}
}

func (s *FieldStore) ListFields(ctx context.Context, associations []string) ([]registry.FieldDefinition, error) {
	var rows []models.FormFieldModel
	err := s.db.WithContext(ctx).
		Where("association IN ?", associations).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	out := make([]registry.FieldDefinition, 0, len(rows))
	for _, r := range rows {
		out = append(out, registry.FieldDefinition{
			ID:          r.ID,
			Shortname:   r.Shortname,
			Label:       r.Label,
			Association: r.Association,
			FieldType:   r.FieldType,
			Validators:  r.Validators,
		})
	}
	return out, nil
}

// OptionSlot persists the registry snapshot in the options table.
type OptionSlot struct {
	db   *gorm.DB
	name string
}

func NewOptionSlot(db *gorm.DB) *OptionSlot {
	return &OptionSlot{db: db, name: FieldsOptionName}
}

func (s *OptionSlot) LoadFields(ctx context.Context) ([]registry.FieldDefinition, bool, error) {
	var opt models.OptionModel
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.name, err)
	}
	var fields []registry.FieldDefinition
	if err := json.Unmarshal([]byte(opt.Value), &fields); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.name, err)
	}
	return fields, true, nil
}

func (s *OptionSlot) SaveFields(ctx context.Context, fields []registry.FieldDefinition) error {
	if fields == nil {
		fields = []registry.FieldDefinition{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	opt := models.OptionModel{Name: s.name, Value: string(data)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&opt).Error
}
