package scopes

import "gorm.io/gorm"

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids ...uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", ids)
	}
}

func WithEvent(eventID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("event_id = ?", eventID)
	}
}

func WithPendingEmail(db *gorm.DB) *gorm.DB {
	return db.Where("email_sent = ?", false)
}

func WithCheckedIn(db *gorm.DB) *gorm.DB {
	return db.Where("checked_in = ?", true)
}
