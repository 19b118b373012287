package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

const (
	CategorySentinel = "all"
	FacetSentinel    = "any"
)

// ListingKind describes one flavour of owned listing. Items and needs share
// the same query, ownership and CRUD shape and only differ in the names
// below and in what the status flag means.
type ListingKind struct {
	Name        string
	Label       string
	OwnerField  string
	FacetField  string
	FacetValues []string
	StatusField string
	// StatusMeansFulfilled is set for needs: a closed need has been fulfilled.
	StatusMeansFulfilled bool
}

var ItemKind = ListingKind{
	Name:        "item",
	Label:       "Item",
	OwnerField:  "owner",
	FacetField:  "condition",
	FacetValues: []string{"New", "Like New", "Good", "Fair", "Poor"},
	StatusField: "isAvailable",
}

var NeedKind = ListingKind{
	Name:                 "need",
	Label:                "Need",
	OwnerField:           "requester",
	FacetField:           "urgency",
	FacetValues:          []string{"Low", "Medium", "High"},
	StatusField:          "isActive",
	StatusMeansFulfilled: true,
}

func (k ListingKind) ValidFacet(value string) bool {
	return slices.Contains(k.FacetValues, value)
}

// Listing is an item offered for donation or a need posted by a requester.
// Open is the availability flag for items and the active flag for needs.
type Listing struct {
	ID          string
	Kind        ListingKind
	Title       string
	Description string
	Category    string
	Facet       string
	Image       string
	OwnerID     string
	Location    string
	Open        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Owner       *PublicProfile
}

func (l Listing) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"_id":         l.ID,
		"title":       l.Title,
		"description": l.Description,
		"category":    l.Category,
		"image":       l.Image,
		"location":    l.Location,
		"createdAt":   l.CreatedAt,
		"updatedAt":   l.UpdatedAt,
	}
	doc[l.Kind.FacetField] = l.Facet
	doc[l.Kind.StatusField] = l.Open
	if l.Owner != nil {
		doc[l.Kind.OwnerField] = l.Owner
	} else {
		doc[l.Kind.OwnerField] = l.OwnerID
	}
	if l.Kind.StatusMeansFulfilled {
		doc["isFulfilled"] = !l.Open
	}
	return json.Marshal(doc)
}

// ListingFilter selects listings. Empty fields apply no restriction.
type ListingFilter struct {
	Category string
	Facet    string
	Search   string
	OpenOnly bool
	OwnerID  string
}

// NewListingFilter builds a public browsing filter from raw query values,
// collapsing the "all" and "any" sentinels into "no filter". The search term
// is matched as given, surrounding spaces included.
func NewListingFilter(category, facet, search string) ListingFilter {
	category = strings.TrimSpace(category)
	if category == CategorySentinel {
		category = ""
	}
	facet = strings.TrimSpace(facet)
	if facet == FacetSentinel {
		facet = ""
	}
	return ListingFilter{
		Category: category,
		Facet:    facet,
		Search:   search,
		OpenOnly: true,
	}
}

// Matches is the reference predicate for the listing query. Every store
// translation has to select exactly the listings this accepts.
func (f ListingFilter) Matches(l Listing) bool {
	if f.OpenOnly && !l.Open {
		return false
	}
	if f.OwnerID != "" && l.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	if f.Facet != "" && l.Facet != f.Facet {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	return true
}

// SortNewestFirst orders listings by creation time descending, breaking ties
// by id descending. The SQL and Mongo stores sort the same way.
func SortNewestFirst(listings []Listing) {
	slices.SortStableFunc(listings, func(a, b Listing) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}
