package models

import "time"

// Setting is one key/value pair of the credential store.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey;column:option_key;size:191"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}
