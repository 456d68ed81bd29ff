package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Contact is the data structure for a business or person that we may reach out to.
// The phone number is the natural key; optional fields are nil when the source had no value.
type Contact struct {
	Id            int64               `json:"id"            db:"id"`
	Name          string              `json:"name"          db:"name"`
	Phone         string              `json:"phone"         db:"phone"`
	Email         *string             `json:"email"         db:"email"`
	Website       *string             `json:"website"       db:"website"`
	Address       *string             `json:"address"       db:"address"`
	Category      *string             `json:"category"      db:"category"`
	Rating        decimal.NullDecimal `json:"rating"        db:"rating"`
	Reviews       *int64              `json:"reviews"       db:"reviews"`
	GoogleMapsURL *string             `json:"googleMapsUrl" db:"google_maps_url"`
	Contacted     bool                `json:"contacted"     db:"contacted"`
	ContactedAt   *time.Time          `json:"contactedAt"   db:"contacted_at"`
	InviteCode    *string             `json:"inviteCode"    db:"invite_code"`
	CreatedAt     time.Time           `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt"     db:"updated_at"`
}

// ContactFields are the values an import row carries for a contact. Name and phone are
// mandatory; a row without them never reaches the store.
type ContactFields struct {
	Name          string              `db:"name"            validate:"required"`
	Phone         string              `db:"phone"           validate:"required"`
	Email         *string             `db:"email"`
	Website       *string             `db:"website"`
	Address       *string             `db:"address"`
	Category      *string             `db:"category"`
	Rating        decimal.NullDecimal `db:"rating"`
	Reviews       *int64              `db:"reviews"`
	GoogleMapsURL *string             `db:"google_maps_url"`
}

// Apply overwrites every mutable field of the contact with the given values, including
// nil ones.
func (c *Contact) Apply(f ContactFields) {
	c.Name = f.Name
	c.Phone = f.Phone
	c.Email = f.Email
	c.Website = f.Website
	c.Address = f.Address
	c.Category = f.Category
	c.Rating = f.Rating
	c.Reviews = f.Reviews
	c.GoogleMapsURL = f.GoogleMapsURL
}

// ImportSummary counts the outcome of one bulk upload.
type ImportSummary struct {
	TotalProcessed  int `json:"totalProcessed"`
	NewContacts     int `json:"newContacts"`
	UpdatedContacts int `json:"updatedContacts"`
}

// ListFilter selects one page of contacts. A nil Contacted means "any status".
type ListFilter struct {
	Page      int
	Limit     int
	Contacted *bool
	Search    string
}

// Offset is the number of rows skipped before the requested page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// OffsetOverflows reports whether Offset would not fit an int.
func (f ListFilter) OffsetOverflows() bool {
	return f.Limit > 0 && f.Page-1 > math.MaxInt/f.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagination computes the page count for total matching rows.
func NewPagination(page, limit int, total int64) Pagination {
	var pages int64
	if limit > 0 {
		pages = int64(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ContactPage is a page of contacts plus its pagination metadata.
type ContactPage struct {
	Contacts   []Contact  `json:"contacts"`
	Pagination Pagination `json:"pagination"`
}

// Stats are the aggregate counts shown on the dashboard.
type Stats struct {
	Total        int64 `json:"total"        db:"total"`
	Contacted    int64 `json:"contacted"    db:"contacted"`
	NotContacted int64 `json:"notContacted" db:"-"`
}
