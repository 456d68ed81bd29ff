package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contact is the JSON representation of a contact as returned by the REST API.
// All fields with the exception of the Id, Name and Phone fields are optional.
type Contact struct {
	Id            int64               `json:"id"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	Email         *string             `json:"email,omitempty"`
	Website       *string             `json:"website,omitempty"`
	Address       *string             `json:"address,omitempty"`
	Category      *string             `json:"category,omitempty"`
	Rating        decimal.NullDecimal `json:"rating"`
	Reviews       *int64              `json:"reviews,omitempty"`
	GoogleMapsURL *string             `json:"googleMapsUrl,omitempty"`
	Contacted     bool                `json:"contacted"`
	ContactedAt   *time.Time          `json:"contactedAt,omitempty"`
	InviteCode    *string             `json:"inviteCode,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Pagination is the paging metadata of a contact list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// ContactList is the body of GET /api/contacts.
type ContactList struct {
	Contacts   []Contact  `json:"contacts"`
	Pagination Pagination `json:"pagination"`
}

// ImportSummary is the outcome of a bulk upload.
type ImportSummary struct {
	TotalProcessed  int `json:"totalProcessed"`
	NewContacts     int `json:"newContacts"`
	UpdatedContacts int `json:"updatedContacts"`
}

// UploadResponse is the body of POST /api/upload.
type UploadResponse struct {
	Success bool          `json:"success"`
	Summary ImportSummary `json:"summary"`
}

// StatusUpdate is the body of PUT /api/contacts.
type StatusUpdate struct {
	Id        int64 `json:"id"`
	Contacted bool  `json:"contacted"`
}

// StatusResponse is the body returned by PUT /api/contacts.
type StatusResponse struct {
	Success bool    `json:"success"`
	Contact Contact `json:"contact"`
}

// Stats is the body of GET /api/stats.
type Stats struct {
	Total        int64 `json:"total"`
	Contacted    int64 `json:"contacted"`
	NotContacted int64 `json:"notContacted"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
