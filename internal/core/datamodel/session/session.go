package session

import "time"

// SessionTag is the portable stand-in for postgres session settings: the
// current operator and shift of each running instance are written here on
// dialects without set_config.
type SessionTag struct {
	InstanceID string    `gorm:"column:instance_id;primaryKey;size:64"`
	Key        string    `gorm:"column:tag_key;primaryKey;size:64"`
	Value      string    `gorm:"column:tag_value;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SessionTag) TableName() string {
	return "session_tags"
}
