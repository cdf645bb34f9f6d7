package database

import (
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	Model
	Name          string     `json:"name"`
	Email         string     `json:"email" gorm:"unique"`
	PasswordHash  string     `json:"-"`
	IsAdmin       bool       `json:"is_admin"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

func RegisterUser(
	DB *gorm.DB,
	name string,
	email string,
	password []byte,
) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	_, err = mail.ParseAddress(email)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if r := DB.Create(&user); r.Error != nil {
		return nil, r.Error
	}

	return &user, nil
}

// StampLastLogin updates the user's last_login_at to now.
func (u *User) StampLastLogin(DB *gorm.DB) error {
	now := time.Now()
	u.LastLoginAt = &now
	return DB.Model(u).Update("last_login_at", now).Error
}
