package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegister_Validate(t *testing.T) {
	valid := Register{Username: "alice", Email: "alice@example.com", Password: "password123", ConfirmPassword: "password123"}

	tests := []struct {
		name   string
		modify func(*Register)
		field  string
		msg    string
	}{
		{"missing username", func(f *Register) { f.Username = "" }, "username", "Please enter a username"},
		{"missing email", func(f *Register) { f.Email = "" }, "email", "Please enter an email address"},
		{"malformed email", func(f *Register) { f.Email = "alice@example" }, "email", "Email address is not valid"},
		{"short password", func(f *Register) { f.Password, f.ConfirmPassword = "short", "short" }, "password", "Password must be at least 8 characters"},
		{"missing confirmation", func(f *Register) { f.ConfirmPassword = "" }, "confirmPassword", "Please confirm your password"},
		{"mismatch", func(f *Register) { f.ConfirmPassword = "password124" }, "confirmPassword", "Passwords do not match"},
	}

	assert.False(t, valid.Validate().Any())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.modify(&form)
			errs := form.Validate()
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs.Get(tt.field))
		})
	}
}

func TestResetPassword_Validate(t *testing.T) {
	assert.False(t, ResetPassword{Password: " newpass1 ", ConfirmPassword: "newpass1"}.Validate().Any())

	errs := ResetPassword{}.Validate()
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "confirmPassword")

	errs = ResetPassword{Password: "newpass1", ConfirmPassword: "newpass2"}.Validate()
	assert.Equal(t, "Passwords do not match", errs.Get("confirmPassword"))
}

func TestArticle_Validate(t *testing.T) {
	assert.False(t, Article{Title: "Hello", Content: "<p>body</p>"}.Validate().Any())

	errs := Article{Title: "  ", Content: "<p><br></p>"}.Validate()
	assert.Equal(t, "Please enter a title", errs.Get("title"))
	assert.Equal(t, "Please write some content", errs.Get("content"))
}

func TestLoginAndForgotPassword_Validate(t *testing.T) {
	errs := Login{}.Validate()
	assert.Len(t, errs, 2)
	assert.False(t, Login{Email: "a@b.co", Password: "x"}.Validate().Any())

	assert.True(t, ForgotPassword{Email: " "}.Validate().Any())
	assert.False(t, ForgotPassword{Email: "a@b.co"}.Validate().Any())
}

func TestErrors_Merge(t *testing.T) {
	errs := Errors{"email": "local"}
	errs.Merge(map[string]string{"email": "remote", "username": "taken"})
	assert.Equal(t, Errors{"email": "local", "username": "taken"}, errs)
}
