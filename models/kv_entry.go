package models

import "time"

// KVEntry is a single row of the SQL-backed key-value table.
type KVEntry struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:191" json:"key"`
	Value     []byte    `gorm:"column:kv_value;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (KVEntry) TableName() string {
	return "kv_entries"
}
