package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Note     string `json:"note" validate:"max=10"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	t.Run("accepts valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(loginForm{Email: "a@b.com", Password: "longenough"}))
	})

	t.Run("rejects missing required field", func(t *testing.T) {
		assert.Error(t, v.Validate(loginForm{Email: "a@b.com"}))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		assert.Error(t, v.Validate(loginForm{Email: "nope", Password: "longenough"}))
	})

	t.Run("rejects too-short string", func(t *testing.T) {
		assert.Error(t, v.Validate(loginForm{Email: "a@b.com", Password: "short"}))
	})

	t.Run("rejects too-long string", func(t *testing.T) {
		assert.Error(t, v.Validate(loginForm{Email: "a@b.com", Password: "longenough", Note: "far too long a note"}))
	})

	t.Run("rejects non-struct", func(t *testing.T) {
		assert.Error(t, v.Validate("not a struct"))
	})
}
