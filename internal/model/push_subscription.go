package model

import "time"

// PushSubscription holds a staff device's browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	StoreID   string    `gorm:"index;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}
