package crhoy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Index is the day index payload served by the API.
type Index struct {
	Items []IndexItem `json:"ultimas"`
}

// IndexItem is one article entry of a day index.
type IndexItem struct {
	ID         int64      `json:"id"`
	URL        string     `json:"url"`
	Date       string     `json:"date"` // e.g. "Febrero 6, 2025"
	Hour       string     `json:"hour"` // e.g. " 9:01 am "
	Categories []Category `json:"categories"`
}

// Category is one entry of an item's categories array. The upstream encodes
// each as a list whose second element is the URL slug.
type Category struct {
	Name string
	Slug string
}

// UnmarshalJSON accepts the upstream list form; elements besides the slug may
// be numbers or other junk and are kept only when they are strings.
func (c *Category) UnmarshalJSON(data []byte) error {
	var parts []any
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("category entry is not a list: %w", err)
	}
	if len(parts) < 2 {
		return fmt.Errorf("category entry has %d elements, want at least 2", len(parts))
	}
	slug, ok := parts[1].(string)
	if !ok {
		return fmt.Errorf("category slug is %T, want string", parts[1])
	}
	c.Slug = slug
	if name, ok := parts[0].(string); ok {
		c.Name = name
	}
	return nil
}

// CategoryPath joins the slugs of an item's categories into the canonical
// upstream path form, e.g. "deportes/futbol".
func (i IndexItem) CategoryPath() string {
	slugs := make([]string, len(i.Categories))
	for n, c := range i.Categories {
		slugs[n] = c.Slug
	}
	return strings.Join(slugs, "/")
}

// Timestamp combines the item's Spanish date and 12-hour clock into an
// instant in zone.
func (i IndexItem) Timestamp(zone *time.Location) (time.Time, error) {
	return ParseTimestamp(i.Date, i.Hour, zone)
}

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// ParseTimestamp parses a Spanish date like "Febrero 6, 2025" and a 12-hour
// clock like "9:01 am" into an instant in zone.
func ParseTimestamp(dateStr, hourStr string, zone *time.Location) (time.Time, error) {
	parts := strings.Fields(strings.ReplaceAll(strings.ToLower(dateStr), ",", ""))
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", dateStr)
	}
	month, ok := spanishMonths[parts[0]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q in date %q", parts[0], dateStr)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day in date %q", dateStr)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in date %q", dateStr)
	}

	clock := strings.ToLower(strings.TrimSpace(hourStr))
	isPM := strings.Contains(clock, "pm")
	clock = strings.TrimSpace(strings.NewReplacer("am", "", "pm", "").Replace(clock))
	hm := strings.Split(clock, ":")
	if len(hm) != 2 {
		return time.Time{}, fmt.Errorf("invalid hour %q", hourStr)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hm[0]))
	if err != nil || hour < 1 || hour > 12 {
		return time.Time{}, fmt.Errorf("invalid hour %q", hourStr)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(hm[1]))
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in hour %q", hourStr)
	}

	if isPM && hour != 12 {
		hour += 12
	} else if !isPM && hour == 12 {
		hour = 0
	}
	return time.Date(year, month, day, hour, minute, 0, 0, zone), nil
}

// ParseIndex decodes and validates a raw day index payload. The "ultimas"
// key must be present even when the day is empty.
func ParseIndex(raw []byte) (*Index, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid index JSON: %w", err)
	}
	list, ok := probe["ultimas"]
	if !ok {
		return nil, fmt.Errorf("index payload is missing the article list")
	}
	var items []IndexItem
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("invalid article list: %w", err)
	}
	return &Index{Items: items}, nil
}
