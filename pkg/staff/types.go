package staff

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Member is an employee profile. UserID links it to a login account when
// the member has console access; field staff without logins leave it empty.
type Member struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId,omitempty"`
	FullName    string     `json:"fullName"`
	Title       string     `json:"title,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Specialties []string   `json:"specialties,omitempty"`
	HireDate    *time.Time `json:"hireDate,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var validate = validator.New()

// CreateRequest is the payload for adding a staff member.
type CreateRequest struct {
	UserID      string     `json:"userId" validate:"omitempty,uuid4"`
	FullName    string     `json:"fullName" validate:"required,max=200"`
	Title       string     `json:"title" validate:"max=100"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Phone       string     `json:"phone" validate:"max=40"`
	Specialties []string   `json:"specialties" validate:"max=20,dive,max=100"`
	HireDate    *time.Time `json:"hireDate"`
}

// Validate checks the payload against its field constraints.
func (r *CreateRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateRequest edits a staff member. Nil fields are left unchanged.
type UpdateRequest struct {
	FullName    *string    `json:"fullName" validate:"omitempty,min=1,max=200"`
	Title       *string    `json:"title" validate:"omitempty,max=100"`
	Email       *string    `json:"email" validate:"omitempty,email"`
	Phone       *string    `json:"phone" validate:"omitempty,max=40"`
	Specialties *[]string  `json:"specialties" validate:"omitempty,max=20,dive,max=100"`
	HireDate    *time.Time `json:"hireDate"`
	IsActive    *bool      `json:"isActive"`
}

// Validate checks the payload against its field constraints.
func (r *UpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Apply copies the set fields onto the member.
func (r *UpdateRequest) Apply(m *Member) {
	if r.FullName != nil {
		m.FullName = *r.FullName
	}
	if r.Title != nil {
		m.Title = *r.Title
	}
	if r.Email != nil {
		m.Email = *r.Email
	}
	if r.Phone != nil {
		m.Phone = *r.Phone
	}
	if r.Specialties != nil {
		m.Specialties = *r.Specialties
	}
	if r.HireDate != nil {
		m.HireDate = r.HireDate
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
}
