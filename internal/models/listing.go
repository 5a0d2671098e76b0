package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Listing statuses accepted by the REST surface.
const (
	ListingStatusPublish = "publish"
	ListingStatusPending = "pending"
	ListingStatusDraft   = "draft"
	ListingStatusPrivate = "private"
)

// ListingModel is a directory entry.
type ListingModel struct {
	IntBase
	Title           string `json:"title"             gorm:"type:text;not null"`
	TitleHash       string `json:"-"                 gorm:"type:char(64);uniqueIndex;not null"`
	Status          string `json:"status"            gorm:"size:20;index;default:'pending'"`
	AuthorID        string `json:"author_id"         gorm:"type:char(36);index"`
	FeaturedMediaID *uint  `json:"featured_media_id"`

	Meta  []ListingMetaModel `json:"meta,omitempty"  gorm:"foreignKey:ListingID"`
	Terms []ListingTermModel `json:"terms,omitempty" gorm:"foreignKey:ListingID"`
}

func (ListingModel) TableName() string { return "listings" }

// HashTitle returns the hex sha256 of a title. Titles of any length are
// unique through this column.
func HashTitle(title string) string {
	sum := sha256.Sum256([]byte(title))
	return hex.EncodeToString(sum[:])
}

// ListingMetaModel is one key/value pair attached to a listing.
// Values are stored JSON-encoded.
type ListingMetaModel struct {
	ID        uint   `json:"-"          gorm:"primaryKey;autoIncrement"`
	ListingID uint   `json:"listing_id" gorm:"uniqueIndex:idx_listing_meta_key;not null"`
	MetaKey   string `json:"meta_key"   gorm:"uniqueIndex:idx_listing_meta_key;size:191;not null"`
	MetaValue string `json:"meta_value" gorm:"type:longtext"`
}

func (ListingMetaModel) TableName() string { return "listing_meta" }

// ListingTermModel associates a listing with a taxonomy term.
type ListingTermModel struct {
	ListingID uint   `json:"listing_id" gorm:"primaryKey"`
	TermID    uint   `json:"term_id"    gorm:"primaryKey"`
	Taxonomy  string `json:"taxonomy"   gorm:"size:64;index;not null"`
	Order     int    `json:"order"      gorm:"column:term_order;default:0"`
}

func (ListingTermModel) TableName() string { return "listing_terms" }

// AttachmentModel is an uploaded media item that can be featured on a listing.
type AttachmentModel struct {
	IntBase
	URL      string `json:"url"       gorm:"type:text;not null"`
	MimeType string `json:"mime_type" gorm:"size:100"`
	Title    string `json:"title"`
}

func (AttachmentModel) TableName() string { return "attachments" }
