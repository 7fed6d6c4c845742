package clients

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Client statuses.
const (
	StatusProspect = "prospect"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Client is a salon business on the roster.
type Client struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"companyName"`
	ContactName  string    `json:"contactName,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var validate = validator.New()

// CreateRequest is the payload for adding a client to the roster.
type CreateRequest struct {
	CompanyName string   `json:"companyName" validate:"required,max=200"`
	ContactName string   `json:"contactName" validate:"max=200"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Phone       string   `json:"phone" validate:"max=40"`
	Address     string   `json:"address" validate:"max=500"`
	Status      string   `json:"status" validate:"omitempty,oneof=prospect active inactive"`
	Notes       string   `json:"notes" validate:"max=5000"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=50"`
}

// Validate checks the payload against its field constraints.
func (r *CreateRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateRequest is the payload for editing a client. Nil fields are left
// unchanged.
type UpdateRequest struct {
	CompanyName *string   `json:"companyName" validate:"omitempty,min=1,max=200"`
	ContactName *string   `json:"contactName" validate:"omitempty,max=200"`
	Email       *string   `json:"email" validate:"omitempty,email"`
	Phone       *string   `json:"phone" validate:"omitempty,max=40"`
	Address     *string   `json:"address" validate:"omitempty,max=500"`
	Status      *string   `json:"status" validate:"omitempty,oneof=prospect active inactive"`
	Notes       *string   `json:"notes" validate:"omitempty,max=5000"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// Validate checks the payload against its field constraints.
func (r *UpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Apply copies the set fields onto the client.
func (r *UpdateRequest) Apply(c *Client) {
	if r.CompanyName != nil {
		c.CompanyName = *r.CompanyName
	}
	if r.ContactName != nil {
		c.ContactName = *r.ContactName
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.Status != nil {
		c.Status = *r.Status
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.Tags != nil {
		c.Tags = *r.Tags
	}
}
