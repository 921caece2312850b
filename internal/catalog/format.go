package catalog

import (
	"fmt"
	"strings"
	"time"
)

const (
	PlaceholderPoster   = "/placeholder-poster.jpg"
	PlaceholderBackdrop = "/placeholder-backdrop.jpg"

	PosterSize   = "w500"
	BackdropSize = "original"
	ProfileSize  = "w185"

	// TopCastSize is how many cast members the detail view shows.
	TopCastSize = 8
)

const releaseDateLayout = "2006-01-02"

// Images builds image URLs from catalog-relative paths.
type Images struct {
	BaseURL string
}

// PosterURL returns the poster URL for path, or the placeholder when absent.
func (i Images) PosterURL(path *string, size string) string {
	return i.build(path, size, PosterSize, PlaceholderPoster)
}

// BackdropURL returns the backdrop URL for path, or the placeholder when absent.
func (i Images) BackdropURL(path *string, size string) string {
	return i.build(path, size, BackdropSize, PlaceholderBackdrop)
}

// ProfileURL returns the cast portrait URL for path. Cast members without a
// portrait have no URL; the presentation draws an initial instead.
func (i Images) ProfileURL(path *string, size string) (string, bool) {
	if path == nil || *path == "" {
		return "", false
	}
	return i.build(path, size, ProfileSize, ""), true
}

func (i Images) build(path *string, size, defaultSize, placeholder string) string {
	if path == nil || *path == "" {
		return placeholder
	}
	if size == "" {
		size = defaultSize
	}
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(i.BaseURL, "/") + "/" + size + p
}

// FormatRuntime renders minutes as "2h 16min" or "45min". Unknown or zero
// runtimes render as "N/A".
func FormatRuntime(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return "N/A"
	}
	h, m := *minutes/60, *minutes%60
	if h == 0 {
		return fmt.Sprintf("%dmin", m)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}

// FormatReleaseDate renders a YYYY-MM-DD date as "March 31, 1999", or "N/A"
// when the date is empty or unparseable.
func FormatReleaseDate(date string) string {
	if date == "" {
		return "N/A"
	}
	t, err := time.Parse(releaseDateLayout, date)
	if err != nil {
		return "N/A"
	}
	return t.Format("January 2, 2006")
}

// YearFromDate returns the four-digit year of a YYYY-MM-DD date, or "" when
// the date is too short to carry one.
func YearFromDate(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// FormatRating renders a vote average with one decimal place.
func FormatRating(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}
