package complaint

import (
	"context"
	"time"
)

// TimestampLayout is the ISO-8601 UTC layout used for Record.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Record is a confirmed issue report. Field names are the persisted contract.
type Record struct {
	Name        string `json:"name"`
	IssueType   string `json:"issue_type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Timestamp   string `json:"timestamp"`
}

// Time parses Timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// Store persists confirmed records.
type Store interface {
	Insert(ctx context.Context, record Record) error
	Name() string
	Close() error
}
