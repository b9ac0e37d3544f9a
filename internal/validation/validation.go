// Package validation checks the shape of incoming request bodies.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Errors maps a field name to a human readable message.
type Errors map[string]string

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PostInput is the body used for both posts and comments.
type PostInput struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ValidateRegisterInput checks a registration request.
func ValidateRegisterInput(in RegisterInput) (Errors, bool) {
	errs := Errors{}

	switch {
	case isEmpty(in.Name):
		errs["name"] = "Name field is required"
	case !isLength(in.Name, 2, 30):
		errs["name"] = "Name must be between 2 and 30 characters"
	}

	checkEmail(errs, in.Email)

	switch {
	case isEmpty(in.Password):
		errs["password"] = "Password field is required"
	case !isLength(in.Password, 6, 30):
		errs["password"] = "Password must be at least 6 characters"
	}

	switch {
	case isEmpty(in.Password2):
		errs["password2"] = "Confirm Password field is required"
	case in.Password != in.Password2:
		errs["password2"] = "Passwords must match"
	}

	return errs, len(errs) == 0
}

// ValidateLoginInput checks a login request.
func ValidateLoginInput(in LoginInput) (Errors, bool) {
	errs := Errors{}
	checkEmail(errs, in.Email)
	if isEmpty(in.Password) {
		errs["password"] = "Password field is required"
	}
	return errs, len(errs) == 0
}

// ValidatePostInput checks the text of a post or comment.
func ValidatePostInput(in PostInput) (Errors, bool) {
	errs := Errors{}
	switch {
	case isEmpty(in.Text):
		errs["text"] = "Text field is required"
	case !isLength(in.Text, 10, 300):
		errs["text"] = "Post must be between 10 and 300 characters"
	}
	return errs, len(errs) == 0
}

func checkEmail(errs Errors, email string) {
	switch {
	case isEmpty(email):
		errs["email"] = "Email field is required"
	case !emailRegex.MatchString(email):
		errs["email"] = "Email is invalid"
	}
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}
