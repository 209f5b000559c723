package entity

import "time"

// DailySummary contadores diarios de envíos a la DIAN.
type DailySummary struct {
	Date     time.Time
	Sent     int
	Accepted int
	Rejected int
}
