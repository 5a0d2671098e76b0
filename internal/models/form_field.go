package models

// Form field associations relevant to listings.
const (
	AssociationMeta   = "meta"
	AssociationRegion = "region"
)

// FormFieldModel mirrors the directory plugin's admin-managed form field table.
type FormFieldModel struct {
	ID           uint   `json:"id"            gorm:"primaryKey;autoIncrement"`
	Label        string `json:"label"         gorm:"not null"`
	Description  string `json:"description"   gorm:"type:text"`
	FieldType    string `json:"field_type"    gorm:"column:field_type;not null"`
	Association  string `json:"association"   gorm:"index;not null"`
	Validators   string `json:"validators"    gorm:"type:text"`
	Weight       int    `json:"weight"        gorm:"default:0"`
	DisplayFlags string `json:"display_flags" gorm:"type:text"`
	FieldData    string `json:"field_data"    gorm:"type:longtext"`
	Shortname    string `json:"shortname"     gorm:"uniqueIndex;size:191;not null"`
	Tag          string `json:"tag"`
}

func (FormFieldModel) TableName() string { return "wpbdp_form_fields" }
