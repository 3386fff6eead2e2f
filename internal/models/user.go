package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"-"`
	Username    string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName   string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName    string    `gorm:"type:varchar(150)" json:"last_name"`
	Bio         string    `gorm:"type:text" json:"bio"`
	Role        Role      `gorm:"type:varchar(15);not null;default:'user'" json:"role"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"-"`

	// ConfirmationStamp binds issued confirmation codes to the user's current
	// state. It is replaced after every successful code exchange.
	ConfirmationStamp string `gorm:"type:varchar(36);not null" json:"-"`

	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
	LastLogin *time.Time `json:"-"`
}

// BeforeCreate assigns the identity and the first confirmation stamp.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ConfirmationStamp == "" {
		u.ConfirmationStamp = uuid.NewString()
	}
	return nil
}

// BeforeSave forces superusers into the admin role.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.IsSuperuser {
		u.Role = RoleAdmin
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// Role-derived flags. They are mutually exclusive in the order
// admin > moderator > user and are never stored.

func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}

func (u *User) IsModerator() bool {
	return !u.IsAdmin() && u.Role == RoleModerator
}

func (u *User) IsUser() bool {
	return !u.IsAdmin() && !u.IsModerator()
}

// IsStaff reports elevated status: any admin or moderator.
func (u *User) IsStaff() bool {
	return u.IsAdmin() || u.IsModerator()
}

func (User) TableName() string {
	return "users"
}
