package store

import (
	"context"
	"fmt"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	"gorm.io/gorm"
)

// TermEnabledKey is the term meta flag that hides a term from lookups.
const TermEnabledKey = "enabled"

// TermStore reads taxonomy terms with their enabled flag.
type TermStore struct {
	db *gorm.DB
}

func NewTermStore(db *gorm.DB) *TermStore {
	return &TermStore{db: db}
}

type termRow struct {
	ID      uint
	Name    string
	Slug    string
	Enabled *string
}

func (s *TermStore) ListTerms(ctx context.Context, tax string) ([]taxonomy.Term, error) {
	var rows []termRow
	err := s.db.WithContext(ctx).
		Model(&models.TermModel{}).
		Select("terms.id, terms.name, terms.slug, term_meta.meta_value AS enabled").
		Joins("LEFT JOIN term_meta ON term_meta.term_id = terms.id AND term_meta.meta_key = ?", TermEnabledKey).
		Where("terms.taxonomy = ?", tax).
		Order("terms.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s terms: %w", tax, err)
	}
	out := make([]taxonomy.Term, 0, len(rows))
	for _, r := range rows {
		out = append(out, taxonomy.Term{ID: r.ID, Name: r.Name, Slug: r.Slug, EnabledMeta: r.Enabled})
	}
	return out, nil
}
