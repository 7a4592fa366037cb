package db

import "time"

// Run represents one generated schedule
type Run struct {
	ID         string
	Week       string
	Policy     string
	Troops     int
	Entries    int
	Score      int
	Hard       int
	Soft       int
	Gaps       int
	Top5Met    int
	Top5Wanted int
	Rounds     int
	FixedPoint bool
	CreatedAt  time.Time
}

// Entry represents one scheduled activity of a run
type Entry struct {
	ID       string
	RunID    string
	Troop    string
	Activity string
	Day      string
	Slot     int
	Span     int
}
