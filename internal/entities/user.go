package entities

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"index;size:255;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         UserRole       `gorm:"size:20;default:user" json:"role"`
	Tokens       []SessionToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// SearchableFields lists the keys accepted in search[...] for users.
// Dotted keys walk relations: tokens.user.email reaches back through a
// token to its owner.
func (User) SearchableFields() []string {
	return []string{"name", "email", "role", "tokens.name", "tokens.user.email"}
}

// FillableFields lists the columns mass assignment may touch. The password
// is changed only through the auth service.
func (User) FillableFields() []string {
	return []string{"name", "email", "role"}
}

// SortableFields keeps credentials out of sort[field].
func (User) SortableFields() []string {
	return []string{"id", "name", "email", "role", "created_at", "updated_at"}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
