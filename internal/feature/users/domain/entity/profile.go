package entity

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// MinPasswordLength is the minimum length of a plaintext password.
	MinPasswordLength = 6

	forbiddenPasswordWord = "password"
)

// Profile holds the user-editable fields of an account. Password is plaintext
// here and must be hashed before it is copied onto a User.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
	Password string `json:"password"`
}

// Normalize trims every text field and lower-cases the email.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Password = strings.TrimSpace(p.Password)
}

// Validate checks name, email and age. The password is checked separately by
// ValidatePassword because an update may keep the stored hash.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required.Error("is required")),
		validation.Field(&p.Email,
			validation.Required.Error("is required"),
			is.Email.Error("is invalid"),
		),
		validation.Field(&p.Age, validation.Min(0).Error("must be a positive number")),
	)
}

// ValidatePassword checks a plaintext password.
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required.Error("is required"),
		validation.Length(MinPasswordLength, 0).Error("must be at least 6 characters"),
		validation.By(notContainsPasswordWord),
	)
	if err != nil {
		return validation.Errors{"password": err}
	}
	return nil
}

func notContainsPasswordWord(value any) error {
	s, _ := value.(string)
	if strings.Contains(strings.ToLower(s), forbiddenPasswordWord) {
		return errors.New(`must not contain "password"`)
	}
	return nil
}
