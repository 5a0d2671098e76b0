package store

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/listing"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return db, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

var listingColumns = []string{"id", "created_at", "updated_at", "title", "title_hash", "status", "author_id", "featured_media_id"}

func TestFindByTitleMatchesAnyStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)
	now := time.Now()

	mock.ExpectQuery(q("SELECT * FROM `listings` WHERE title_hash = ? AND title = ? ORDER BY id ASC")).
		WithArgs(models.HashTitle("Test Shop"), "Test Shop", 1).
		WillReturnRows(sqlmock.NewRows(listingColumns).
			AddRow(7, now, now, "Test Shop", models.HashTitle("Test Shop"), models.ListingStatusDraft, "u1", 500))

	l, err := s.FindByTitle(context.Background(), "Test Shop")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, listing.Listing{ID: 7, Title: "Test Shop", Status: models.ListingStatusDraft, AuthorID: "u1", FeaturedMediaID: 500}, *l)

	mock.ExpectQuery(q("SELECT * FROM `listings` WHERE title_hash = ?")).
		WillReturnRows(sqlmock.NewRows(listingColumns))
	l, err = s.FindByTitle(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestCreateStoresTitleHash(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)
	title := strings.Repeat("Long Title ", 30)

	mock.ExpectExec(q("INSERT INTO `listings`")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), title, models.HashTitle(title), models.ListingStatusPublish, "u1", nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := s.Create(context.Background(), listing.Listing{Title: title, Status: models.ListingStatusPublish, AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestCreateMapsDuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)

	mock.ExpectExec(q("INSERT INTO `listings`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := s.Create(context.Background(), listing.Listing{Title: "Race", Status: models.ListingStatusPending})
	assert.ErrorIs(t, err, listing.ErrDuplicateTitle)
}

func TestUpdateCoreRenamesWithHash(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)
	title := "Taken"

	mock.ExpectExec(q("UPDATE `listings` SET `title`=?,`title_hash`=?,`updated_at`=? WHERE id = ?")).
		WithArgs(title, models.HashTitle(title), sqlmock.AnyArg(), 8).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.UpdateCore(context.Background(), 8, &title, nil)
	assert.ErrorIs(t, err, listing.ErrDuplicateTitle)

	assert.NoError(t, s.UpdateCore(context.Background(), 8, nil, nil))
}

func TestSetMetaUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)

	mock.ExpectExec(q("INSERT INTO `listing_meta` (`listing_id`,`meta_key`,`meta_value`) VALUES (?,?,?) ON DUPLICATE KEY UPDATE `meta_value`=VALUES(`meta_value`)")).
		WithArgs(3, "_wpbdp[fields][3]", `["https://example.com"]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.SetMeta(context.Background(), 3, "_wpbdp[fields][3]", []interface{}{"https://example.com"}))
}

func TestSetTermsDeletesBeforeInsert(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM `listing_terms` WHERE listing_id = ? AND taxonomy = ?")).
		WithArgs(3, models.TaxonomyTag).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO `listing_terms` (`listing_id`,`term_id`,`taxonomy`,`term_order`) VALUES (?,?,?,?),(?,?,?,?)")).
		WithArgs(3, 41, models.TaxonomyTag, 0, 3, 40, models.TaxonomyTag, 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.SetTerms(context.Background(), 3, models.TaxonomyTag, []uint{41, 40}))
}

func TestSetTermsEmptyClearsGroup(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewContentStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM `listing_terms` WHERE listing_id = ? AND taxonomy = ?")).
		WithArgs(3, models.TaxonomyRegion).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.SetTerms(context.Background(), 3, models.TaxonomyRegion, nil))
}

func TestListTermsProjectsEnabledFlag(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewTermStore(db)

	mock.ExpectQuery(q("SELECT terms.id, terms.name, terms.slug, term_meta.meta_value AS enabled FROM `terms` "+
		"LEFT JOIN term_meta ON term_meta.term_id = terms.id AND term_meta.meta_key = ? "+
		"WHERE terms.taxonomy = ? ORDER BY terms.id ASC")).
		WithArgs(TermEnabledKey, models.TaxonomyCategory).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "enabled"}).
			AddRow(30, "Restaurants", "restaurants", nil).
			AddRow(31, "Cafes", "cafes", "0"))

	terms, err := s.ListTerms(context.Background(), models.TaxonomyCategory)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, uint(30), terms[0].ID)
	assert.Equal(t, "restaurants", terms[0].Slug)
	assert.Nil(t, terms[0].EnabledMeta)
	require.NotNil(t, terms[1].EnabledMeta)
	assert.Equal(t, "0", *terms[1].EnabledMeta)
}

func TestOptionSlotRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewOptionSlot(db)

	mock.ExpectQuery(q("SELECT * FROM `options` WHERE name = ?")).
		WithArgs(FieldsOptionName, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}))
	fields, ok, err := s.LoadFields(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, fields)

	mock.ExpectExec(q("INSERT INTO `options` (`name`,`value`) VALUES (?,?) ON DUPLICATE KEY UPDATE `value`=VALUES(`value`)")).
		WithArgs(FieldsOptionName, "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.SaveFields(context.Background(), nil))

	mock.ExpectQuery(q("SELECT * FROM `options` WHERE name = ?")).
		WithArgs(FieldsOptionName, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}).
			AddRow(1, FieldsOptionName, `[{"id":2,"shortname":"phone"}]`))
	fields, ok, err = s.LoadFields(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, registry.FieldDefinition{ID: 2, Shortname: "phone"}, fields[0])
}
