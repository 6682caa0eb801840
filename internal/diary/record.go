// Package diary holds the record list, its pending/completed projections and
// the controller that every user action goes through.
package diary

import "time"

// TimestampLayout is the text form of addedDate and completedDate.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// StoreKey is the one key the record list is persisted under.
const StoreKey = "todos"

type Record struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	ID            int64   `json:"id"`
	AddedDate     string  `json:"addedDate"`
	Completed     bool    `json:"completed"`
	CompletedDate *string `json:"completedDate"`
}

// CompletedAt returns the completion timestamp text, or "" while pending.
func (r Record) CompletedAt() string {
	if r.CompletedDate == nil {
		return ""
	}
	return *r.CompletedDate
}

// ParseTimestamp reads a timestamp written with TimestampLayout.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

func formatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		if r.CompletedDate != nil {
			d := *r.CompletedDate
			r.CompletedDate = &d
		}
		out[i] = r
	}
	return out
}
