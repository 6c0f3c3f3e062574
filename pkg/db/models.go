package db

import "time"

// Source is a page that has been loaded and scanned for known words.
type Source struct {
	ID            int64
	URL           string
	Title         string
	Byline        string
	SiteName      string
	Visits        int
	LastMatches   int
	FirstSeenAt   time.Time
	LastScannedAt time.Time
}
