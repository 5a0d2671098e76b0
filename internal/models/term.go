package models

// Taxonomy names used by the directory.
const (
	TaxonomyRegion   = "wpbdp_region"
	TaxonomyCategory = "wpbdp_category"
	TaxonomyTag      = "wpbdp_tag"
)

// TermModel is a taxonomy value (region, category or tag).
type TermModel struct {
	IntBase
	Taxonomy string `json:"taxonomy" gorm:"size:64;index;not null"`
	Name     string `json:"name"     gorm:"size:191;not null"`
	Slug     string `json:"slug"     gorm:"size:191;index"`
	ParentID uint   `json:"parent"   gorm:"default:0"`

	Meta []TermMetaModel `json:"meta,omitempty" gorm:"foreignKey:TermID"`
}

func (TermModel) TableName() string { return "terms" }

// TermMetaModel holds per-term flags such as "enabled".
type TermMetaModel struct {
	ID        uint   `json:"-"          gorm:"primaryKey;autoIncrement"`
	TermID    uint   `json:"term_id"    gorm:"uniqueIndex:idx_term_meta_key;not null"`
	MetaKey   string `json:"meta_key"   gorm:"uniqueIndex:idx_term_meta_key;size:191;not null"`
	MetaValue string `json:"meta_value" gorm:"type:text"`
}

func (TermMetaModel) TableName() string { return "term_meta" }
