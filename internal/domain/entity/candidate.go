// Package entity defines the core domain objects of a digest run: the candidate
// papers read from the feed, the summarized digests built from them and the
// messages handed to a delivery channel.
package entity

import (
	"strconv"
	"time"
)

// Author is a single paper author as listed by the feed.
type Author struct {
	Name string
}

// Candidate is one paper considered for the daily digest.
// ID is assigned once at ingestion (1..N) and never renumbered.
type Candidate struct {
	ID          int
	Link        string
	Authors     []Author
	Title       string
	Abstract    string
	DocumentURL string
	PublishedAt time.Time
}

// Label renders the identifier-bearing title shown to the oracle.
func (c Candidate) Label() string {
	return strconv.Itoa(c.ID) + ". " + c.Title
}

// AuthorNames returns the author names in feed order.
func (c Candidate) AuthorNames() []string {
	names := make([]string, 0, len(c.Authors))
	for _, a := range c.Authors {
		names = append(names, a.Name)
	}
	return names
}

// CandidateIDs returns the identifiers of cands in order.
func CandidateIDs(cands []Candidate) []int {
	ids := make([]int, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	return ids
}
