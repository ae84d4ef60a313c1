package entities

import "time"

// Link tables use a composite primary key on the two entry columns, so a
// pair can be linked at most once.

type ProjectMethodLink struct {
	ProjectID uint `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	MethodID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"method_id"`
	CreatedAt time.Time
}

type ProjectPersonLink struct {
	ProjectID uint `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	PersonID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"person_id"`
	CreatedAt time.Time
}

type ProjectClientLink struct {
	ProjectID uint `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	ClientID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"client_id"`
	CreatedAt time.Time
}

type OfferMethodLink struct {
	OfferID   uint `gorm:"primaryKey;autoIncrement:false" json:"offer_id"`
	MethodID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"method_id"`
	CreatedAt time.Time
}

type OfferPersonLink struct {
	OfferID   uint `gorm:"primaryKey;autoIncrement:false" json:"offer_id"`
	PersonID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"person_id"`
	CreatedAt time.Time
}

type OfferClientLink struct {
	OfferID   uint `gorm:"primaryKey;autoIncrement:false" json:"offer_id"`
	ClientID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"client_id"`
	CreatedAt time.Time
}

type OfferProjectLink struct {
	OfferID   uint `gorm:"primaryKey;autoIncrement:false" json:"offer_id"`
	ProjectID uint `gorm:"primaryKey;autoIncrement:false;index" json:"project_id"`
	CreatedAt time.Time
}

type MethodPersonLink struct {
	MethodID  uint `gorm:"primaryKey;autoIncrement:false" json:"method_id"`
	PersonID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"person_id"`
	CreatedAt time.Time
}

// LinkModels returns one zero value per link table, for migrations.
func LinkModels() []any {
	return []any{
		&ProjectMethodLink{},
		&ProjectPersonLink{},
		&ProjectClientLink{},
		&OfferMethodLink{},
		&OfferPersonLink{},
		&OfferClientLink{},
		&OfferProjectLink{},
		&MethodPersonLink{},
	}
}
