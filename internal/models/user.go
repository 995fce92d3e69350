package models

import "time"

// User represents a customer account.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	PasswordHash   string    `json:"-" gorm:"type:varchar(255)"`
	PasswordScheme string    `json:"-" gorm:"type:varchar(16)"`
	FirstName      string    `json:"first_name" gorm:"type:varchar(50)"`
	LastName       string    `json:"last_name" gorm:"type:varchar(50)"`
	Address        string    `json:"address" gorm:"type:varchar(200)"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile holds the editable personal fields of an account.
type Profile struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50,personname"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50,personname"`
	Address   string `json:"address" validate:"required,min=10,max=200"`
}

// Profile returns the editable fields of the account.
func (u User) Profile() Profile {
	return Profile{FirstName: u.FirstName, LastName: u.LastName, Address: u.Address}
}

// Registration is the sign-up form of a new customer.
type Registration struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,min=2,max=50,personname"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50,personname"`
	Address   string `json:"address" validate:"required,min=10,max=200"`
}

// EmailChange asks to move an account to a new email address.
type EmailChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Email           string `json:"email" validate:"required,email,max=255"`
	ConfirmEmail    string `json:"confirm_email" validate:"required,eqfield=Email"`
}

// PasswordChange asks to replace the account password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
