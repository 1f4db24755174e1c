// internal/storage/models/event.go
package models

import "time"

// EventRecord is one ledger event as indexed for the read API.
type EventRecord struct {
	BaseModel
	Authority  string    `gorm:"not null;type:varchar(44);uniqueIndex:idx_event_position"`
	EventIndex uint64    `gorm:"not null;uniqueIndex:idx_event_position"`
	GameIndex  uint64    `gorm:"not null"`
	Actor      string    `gorm:"index;not null;type:varchar(44)"`
	Type       string    `gorm:"index;not null;type:varchar(40)"`
	Version    uint8     `gorm:"not null"`
	Payload    string    `gorm:"type:text;not null"`
	OccurredAt time.Time `gorm:"index;not null"`
}

// ActorStat aggregates activity per (game, actor).
type ActorStat struct {
	BaseModel
	Authority   string    `gorm:"not null;type:varchar(44);uniqueIndex:idx_actor"`
	Actor       string    `gorm:"not null;type:varchar(44);uniqueIndex:idx_actor"`
	Events      uint64    `gorm:"default:0"`
	Spent       uint64    `gorm:"default:0"`
	Withdrawn   uint64    `gorm:"default:0"`
	LastEventAt time.Time `gorm:"index"`
}
