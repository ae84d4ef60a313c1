// Package link holds the fixed set of many-to-many link tables between
// knowledge entry categories.
package link

import (
	"gorm.io/gorm"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

// Kind is one link table joining two categories.
type Kind struct {
	Table string
	A, B  string
}

// Col is the column holding ids of the given category side.
func (k Kind) Col(category string) string { return category + "_id" }

// Other returns the category on the opposite side.
func (k Kind) Other(category string) string {
	if category == k.A {
		return k.B
	}
	return k.A
}

// Row builds an insertable row, whichever order the ids are passed in.
func (k Kind) Row(catX string, idX uint, catY string, idY uint) map[string]any {
	return map[string]any{k.Col(catX): idX, k.Col(catY): idY}
}

var Kinds = []Kind{
	{Table: "project_method_links", A: entities.CategoryProject, B: entities.CategoryMethod},
	{Table: "project_person_links", A: entities.CategoryProject, B: entities.CategoryPerson},
	{Table: "project_client_links", A: entities.CategoryProject, B: entities.CategoryClient},
	{Table: "offer_method_links", A: entities.CategoryOffer, B: entities.CategoryMethod},
	{Table: "offer_person_links", A: entities.CategoryOffer, B: entities.CategoryPerson},
	{Table: "offer_client_links", A: entities.CategoryOffer, B: entities.CategoryClient},
	{Table: "offer_project_links", A: entities.CategoryOffer, B: entities.CategoryProject},
	{Table: "method_person_links", A: entities.CategoryMethod, B: entities.CategoryPerson},
}

// KindFor finds the table linking two categories, in either order.
func KindFor(catA, catB string) (Kind, bool) {
	for _, k := range Kinds {
		if (k.A == catA && k.B == catB) || (k.A == catB && k.B == catA) {
			return k, true
		}
	}
	return Kind{}, false
}

// KindsOf lists the tables an entry of the category can appear in.
func KindsOf(category string) []Kind {
	var out []Kind
	for _, k := range Kinds {
		if k.A == category || k.B == category {
			out = append(out, k)
		}
	}
	return out
}

// DeleteEntryLinks removes every link row of an entry. It runs on the
// caller's transaction.
func DeleteEntryLinks(tx *gorm.DB, entryID uint, category string) error {
	for _, k := range KindsOf(category) {
		if err := tx.Exec("DELETE FROM "+k.Table+" WHERE "+k.Col(category)+" = ?", entryID).Error; err != nil {
			return err
		}
	}
	return nil
}
