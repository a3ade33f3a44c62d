package client

import (
	"context"
	"net/http"
	"strconv"
)

// Credentials is the login payload for both user and student accounts.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationInput carries account creation fields.
type RegistrationInput struct {
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Program   string `json:"program,omitempty"`
}

// AuthResult is the registrar's verdict on a credential check.
type AuthResult struct {
	UserID    int64  `json:"userId,omitempty"`
	StudentID int64  `json:"studentId,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// SubjectID returns whichever identifier the registrar populated.
func (r AuthResult) SubjectID() string {
	if r.StudentID != 0 {
		return strconv.FormatInt(r.StudentID, 10)
	}
	if r.UserID != 0 {
		return strconv.FormatInt(r.UserID, 10)
	}
	return ""
}

// UserLogin verifies staff credentials.
func (c *Registrar) UserLogin(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/user/login", nil, creds, &out)
	return out, err
}

// StudentLogin verifies student credentials.
func (c *Registrar) StudentLogin(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/student/login", nil, creds, &out)
	return out, err
}

// RegisterUser creates a staff account.
func (c *Registrar) RegisterUser(ctx context.Context, in RegistrationInput) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/user/register", nil, in, &out)
	return out, err
}

// RegisterStudent creates a student account.
func (c *Registrar) RegisterStudent(ctx context.Context, in RegistrationInput) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/student/register", nil, in, &out)
	return out, err
}

// ForgotPassword starts a password reset.
func (c *Registrar) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/user/forgot-password", nil, map[string]string{"email": email}, nil)
}

// ResetPassword completes a password reset.
func (c *Registrar) ResetPassword(ctx context.Context, token, password string) error {
	payload := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/user/reset-password", nil, payload, nil)
}
