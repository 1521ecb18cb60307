package services

import (
	"fmt"

	"github.com/dmitrijs2005/infosec/internal/common"
	"github.com/dmitrijs2005/infosec/internal/server/auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SignupRequest is the signup payload.
type SignupRequest struct {
	Username  string
	Email     string
	Password  string
	Name      string
	Phone     string
	BirthDate string
	Gender    string
	// Roles defaults to models.DefaultRole when empty. Public endpoints must
	// not forward user-supplied roles.
	Roles []string
}

func (r SignupRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.RuneLength(0, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 100),
			validation.By(maxBytes(auth.MaxPasswordBytes))),
		validation.Field(&r.Name, validation.RuneLength(0, 50)),
		validation.Field(&r.Phone, validation.RuneLength(0, 20)),
		validation.Field(&r.BirthDate, validation.RuneLength(0, 10)),
		validation.Field(&r.Gender, validation.RuneLength(0, 10)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

// maxBytes limits the encoded length of a string, which RuneLength does not.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be no more than %d bytes", n)
		}
		return nil
	}
}

// LoginRequest is the login payload. UsernameOrEmail matches either field.
type LoginRequest struct {
	UsernameOrEmail string
	Password        string
}

func (r LoginRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.UsernameOrEmail, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}
