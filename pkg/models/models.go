// Package models defines the row types shared by the store and the workers.
package models

import "time"

// Relation describes how an article relates to Costa Rica.
type Relation string

// Relation values produced by the classification agent.
const (
	RelationDirectly   Relation = "directly"
	RelationIndirectly Relation = "indirectly"
	RelationNA         Relation = "na"
)

// Valid reports whether r is one of the known relation values.
func (r Relation) Valid() bool {
	switch r {
	case RelationDirectly, RelationIndirectly, RelationNA:
		return true
	}
	return false
}

// UnknownCategory is the reserved smart-category sentinel assigned to
// articles whose analysis never produced a real category. It is seeded with
// ignore=true and excluded from every catalog shown to the LLM.
const UnknownCategory = "__unknown__"

// Article is one news article as discovered in a day index.
//
// Lifecycle: inserted by the synchronizer with an empty BodyPath; the
// downloader later sets exactly one of {BodyPath, Skipped, Failed}.
type Article struct {
	ID        int64
	URL       string
	Timestamp time.Time // site-zone instant parsed from the index
	BodyPath  string    // empty until the body is stored
	Skipped   bool      // upstream category was in the ignore set
	Failed    bool      // fetch or parse permanently failed
}

// Pending reports whether the article still awaits download.
func (a Article) Pending() bool {
	return a.BodyPath == "" && !a.Skipped && !a.Failed
}

// DayIndex records that the index for a calendar day was fetched at least once.
type DayIndex struct {
	Date time.Time // date only, midnight in UTC
	Path string    // where the index JSON was persisted
}

// Gap is a half-open date interval [Start, End) with no DayIndex records.
// Gaps form the synchronizer's work queue.
type Gap struct {
	Start time.Time // inclusive, date only
	End   time.Time // exclusive, date only
}

// Days returns the number of calendar days covered by the gap.
func (g Gap) Days() int {
	return int(g.End.Sub(g.Start).Hours() / 24)
}

// SmartCategory is an LLM-curated category, possibly introduced at runtime.
type SmartCategory struct {
	Name        string // may contain a single '/' denoting parent/child
	Description string // used as LLM context
	Ignore      bool   // articles in this category are never summarized
}

// Summary is a per-language summary file for one article.
type Summary struct {
	ArticleID int64
	Lang      string // two-letter code
	Path      string // plain-text summary file
}

// Verdict is the analyzer's decision about one article.
//
// Invariant: Skipped implies no Summary rows; success implies one Summary
// row per configured language, written in the same transaction.
type Verdict struct {
	ArticleID int64
	Timestamp time.Time // mirrors Article.Timestamp for range scans
	Relation  Relation
	Category  string // references SmartCategory.Name
	Skipped   bool
	Failed    bool
}

// Delivery records that an article's summary was posted to the channel.
// Rows older than the current window's lower bound are purged by the notifier.
type Delivery struct {
	ArticleID int64
	Timestamp time.Time // mirrors Verdict.Timestamp
}

// Candidate is one notifier candidate: a successful verdict joined with the
// article URL, ordered by timestamp.
type Candidate struct {
	ArticleID int64
	Timestamp time.Time
	URL       string
	Category  string
}
