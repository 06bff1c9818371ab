package models

import "time"

// DailySearchLimit is the advertised number of searches per day on the
// core plan. Usage is reported against it but never enforced.
const DailySearchLimit = 5

// SearchUsage counts a user's searches since LastReset.
type SearchUsage struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	SearchCount int       `gorm:"not null;default:0" json:"search_count"`
	LastReset   time.Time `gorm:"not null" json:"last_reset"`
}

func (SearchUsage) TableName() string {
	return "search_usage"
}

// Remaining is the number of searches left before the advertised limit.
func (u SearchUsage) Remaining() int {
	return max(DailySearchLimit-u.SearchCount, 0)
}
