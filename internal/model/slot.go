package model

import "time"

// Slot is one bookable granule of a room's operating window for a given
// day.  Slots are produced by the availability engine for display and for
// next-free suggestions; Available reflects the window check at enumeration
// time and is not a hold.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
