package forms

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"blogweb/internal/content"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e Errors) Get(field string) string {
	return e[field]
}

func (e Errors) Any() bool {
	return len(e) > 0
}

// Merge copies the messages of other that e does not have yet.
func (e Errors) Merge(other map[string]string) {
	for field, msg := range other {
		e.Add(field, msg)
	}
}

type Register struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (f Register) Validate() Errors {
	errs := Errors{}
	if f.Username == "" {
		errs.Add("username", "Please enter a username")
	}
	if f.Email == "" {
		errs.Add("email", "Please enter an email address")
	} else if !emailPattern.MatchString(f.Email) {
		errs.Add("email", "Email address is not valid")
	}
	if f.Password == "" {
		errs.Add("password", "Please enter a password")
	} else if utf8.RuneCountInString(f.Password) < MinPasswordLength {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if f.ConfirmPassword == "" {
		errs.Add("confirmPassword", "Please confirm your password")
	} else if f.ConfirmPassword != f.Password {
		errs.Add("confirmPassword", "Passwords do not match")
	}
	return errs
}

type Login struct {
	Email    string
	Password string
}

func (f Login) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Email) == "" {
		errs.Add("email", "Please enter your email address")
	}
	if f.Password == "" {
		errs.Add("password", "Please enter your password")
	}
	return errs
}

type ForgotPassword struct {
	Email string
}

func (f ForgotPassword) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Email) == "" {
		errs.Add("email", "Please enter your email address")
	}
	return errs
}

type ResetPassword struct {
	Password        string
	ConfirmPassword string
}

// Validate compares the two fields after trimming surrounding whitespace.
func (f ResetPassword) Validate() Errors {
	errs := Errors{}
	password := strings.TrimSpace(f.Password)
	confirm := strings.TrimSpace(f.ConfirmPassword)
	if password == "" {
		errs.Add("password", "Please enter a new password")
	}
	if confirm == "" {
		errs.Add("confirmPassword", "Please confirm your new password")
	}
	if password != "" && confirm != "" && password != confirm {
		errs.Add("confirmPassword", "Passwords do not match")
	}
	return errs
}

type Article struct {
	Title   string
	Content string
}

// Validate requires a title and content that is not empty once its markup
// is stripped.
func (f Article) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "Please enter a title")
	}
	if content.PlainText(f.Content) == "" {
		errs.Add("content", "Please write some content")
	}
	return errs
}
