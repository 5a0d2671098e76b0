package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/listing"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

// ContentStore keeps listings, their meta and term associations in MySQL.
// Every method commits on its own.
type ContentStore struct {
	db *gorm.DB
}

func NewContentStore(db *gorm.DB) *ContentStore {
	return &ContentStore{db: db}
}

func toListing(m *models.ListingModel) *listing.Listing {
	l := &listing.Listing{ID: m.ID, Title: m.Title, Status: m.Status, AuthorID: m.AuthorID}
	if m.FeaturedMediaID != nil {
		l.FeaturedMediaID = *m.FeaturedMediaID
	}
	return l
}

func (s *ContentStore) FindByTitle(ctx context.Context, title string) (*listing.Listing, error) {
	var m models.ListingModel
	err := s.db.WithContext(ctx).Where("title_hash = ? AND title = ?", models.HashTitle(title), title).Order("id ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toListing(&m), nil
}

func (s *ContentStore) Get(ctx context.Context, id uint) (*listing.Listing, error) {
	var m models.ListingModel
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, listing.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return toListing(&m), nil
}

func (s *ContentStore) Create(ctx context.Context, l listing.Listing) (uint, error) {
	m := models.ListingModel{Title: l.Title, TitleHash: models.HashTitle(l.Title), Status: l.Status, AuthorID: l.AuthorID}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicateKey(err) {
			return 0, listing.ErrDuplicateTitle
		}
		return 0, err
	}
	return m.ID, nil
}

func (s *ContentStore) UpdateCore(ctx context.Context, id uint, title, status *string) error {
	updates := map[string]interface{}{}
	if title != nil {
		updates["title"] = *title
		updates["title_hash"] = models.HashTitle(*title)
	}
	if status != nil {
		updates["status"] = *status
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.ListingModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return listing.ErrDuplicateTitle
		}
		return res.Error
	}
	return nil
}

func (s *ContentStore) GetMeta(ctx context.Context, id uint, key string) (interface{}, bool, error) {
	var m models.ListingMetaModel
	err := s.db.WithContext(ctx).Where("listing_id = ? AND meta_key = ?", id, key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := decodeMeta(m.MetaValue)
	if err != nil {
		return nil, false, fmt.Errorf("decode meta %s of listing %d: %w", key, id, err)
	}
	return v, true, nil
}

func (s *ContentStore) SetMeta(ctx context.Context, id uint, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode meta %s: %w", key, err)
	}
	row := models.ListingMetaModel{ListingID: id, MetaKey: key, MetaValue: string(data)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(&row).Error
}

// SetTerms replaces the listing's associations within one taxonomy.
func (s *ContentStore) SetTerms(ctx context.Context, id uint, tax string, termIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ? AND taxonomy = ?", id, tax).Delete(&models.ListingTermModel{}).Error; err != nil {
			return err
		}
		if len(termIDs) == 0 {
			return nil
		}
		rows := make([]models.ListingTermModel, 0, len(termIDs))
		for i, termID := range termIDs {
			rows = append(rows, models.ListingTermModel{ListingID: id, TermID: termID, Taxonomy: tax, Order: i})
		}
		return tx.Create(&rows).Error
	})
}

func (s *ContentStore) SetFeaturedMedia(ctx context.Context, id, mediaID uint) error {
	return s.db.WithContext(ctx).Model(&models.ListingModel{}).
		Where("id = ?", id).
		Update("featured_media_id", mediaID).Error
}

func (s *ContentStore) AttachmentExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AttachmentModel{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func decodeMeta(raw string) (interface{}, error) {
	if raw == "" {
		return "", nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
