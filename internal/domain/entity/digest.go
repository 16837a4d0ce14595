package entity

import "strings"

// Digest pairs a selected candidate with its generated summary.
type Digest struct {
	Candidate Candidate
	Summary   string
}

// Format renders the digest in the layout delivered to readers.
func (d Digest) Format() string {
	var b strings.Builder
	b.WriteString("Link: ")
	b.WriteString(d.Candidate.Link)
	b.WriteString("\n\nAuthors: ")
	b.WriteString(strings.Join(d.Candidate.AuthorNames(), ", "))
	b.WriteString("\n\nTitle: ")
	b.WriteString(d.Candidate.Title)
	b.WriteString("\n\nSummary: ")
	b.WriteString(d.Summary)
	return b.String()
}
