package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RecordSourceVisit upserts the page identified by url and bumps its visit
// counter. Empty metadata never overwrites what an earlier visit stored.
func RecordSourceVisit(db DBExecutor, url, title, byline, siteName string, matches int) (int64, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return 0, fmt.Errorf("url must be non-empty")
	}
	if matches < 0 {
		return 0, fmt.Errorf("matches must not be negative, got %d", matches)
	}

	var id int64
	err := db.QueryRow(`INSERT INTO sources (url, title, byline, site_name, visits, last_matches, last_scanned_at)
	VALUES (?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
	  title = COALESCE(NULLIF(excluded.title, ''), sources.title),
	  byline = COALESCE(NULLIF(excluded.byline, ''), sources.byline),
	  site_name = COALESCE(NULLIF(excluded.site_name, ''), sources.site_name),
	  visits = sources.visits + 1,
	  last_matches = excluded.last_matches,
	  last_scanned_at = excluded.last_scanned_at
	RETURNING id`, trimmedURL, title, byline, siteName, matches, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert source: %w", err)
	}
	return id, nil
}

// GetSourceByURL returns the stored page, or sql.ErrNoRows.
func GetSourceByURL(db DBExecutor, url string) (Source, error) {
	var s Source
	var title, byline, site sql.NullString
	var last sql.NullTime
	err := db.QueryRow(`SELECT id, url, title, byline, site_name, visits, last_matches, first_seen_at, last_scanned_at
	FROM sources WHERE url = ?`, strings.TrimSpace(url)).Scan(
		&s.ID, &s.URL, &title, &byline, &site, &s.Visits, &s.LastMatches, &s.FirstSeenAt, &last)
	if err != nil {
		return Source{}, err
	}
	s.Title = title.String
	s.Byline = byline.String
	s.SiteName = site.String
	if last.Valid {
		s.LastScannedAt = last.Time
	}
	return s, nil
}

// ListSources returns pages ordered by most recent scan first.
func ListSources(db DBExecutor, limit int) ([]Source, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT id, url, title, byline, site_name, visits, last_matches, first_seen_at, last_scanned_at
	FROM sources ORDER BY last_scanned_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var s Source
		var title, byline, site sql.NullString
		var last sql.NullTime
		if err := rows.Scan(&s.ID, &s.URL, &title, &byline, &site, &s.Visits, &s.LastMatches, &s.FirstSeenAt, &last); err != nil {
			return nil, err
		}
		s.Title = title.String
		s.Byline = byline.String
		s.SiteName = site.String
		if last.Valid {
			s.LastScannedAt = last.Time
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
