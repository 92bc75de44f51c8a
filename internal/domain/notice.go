package domain

import "time"

// Notice is a procurement notice (edital) as published on PNCP, normalised
// to the fields the dashboard and tools work with.
type Notice struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Org         string     `json:"org"`
	OrgCNPJ     string     `json:"org_cnpj,omitempty"`
	UF          string     `json:"uf,omitempty"`
	City        string     `json:"city,omitempty"`
	Modality    string     `json:"modality,omitempty"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Value       float64    `json:"value"`
	SourceURL   string     `json:"source_url,omitempty"`
}

// Text returns the free text used for risk scoring.
func (n Notice) Text() string {
	switch {
	case n.Title == "":
		return n.Description
	case n.Description == "":
		return n.Title
	default:
		return n.Title + "\n" + n.Description
	}
}

// NoticePage is one page of notices returned by a search or listing.
type NoticePage struct {
	Items      []Notice `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
}
