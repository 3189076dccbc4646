package app

import "time"

// IsSaleActive reports whether the sale has started at now.
func IsSaleActive(now, start time.Time) bool {
	return !now.Before(start)
}

// Countdown is the time left until the sale starts.
type Countdown struct {
	Days      int  `json:"days"`
	Hours     int  `json:"hours"`
	Minutes   int  `json:"minutes"`
	Seconds   int  `json:"seconds"`
	Completed bool `json:"completed"`
}

func NewCountdown(now, start time.Time) Countdown {
	if IsSaleActive(now, start) {
		return Countdown{Completed: true}
	}

	left := start.Sub(now)
	// Round up so the last second reads 1 and not 0 while still pending
	secs := int64((left + time.Second - 1) / time.Second)

	return Countdown{
		Days:    int(secs / 86400),
		Hours:   int(secs % 86400 / 3600),
		Minutes: int(secs % 3600 / 60),
		Seconds: int(secs % 60),
	}
}
