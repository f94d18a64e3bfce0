package scope

import "gorm.io/gorm"

// OrderByCreatedAsc is the natural order of a chat transcript.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
