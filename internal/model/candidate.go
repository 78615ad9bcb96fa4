package model

import (
	"strings"
	"time"
)

// Candidate is a registered exam taker, identified by mobile number.
type Candidate struct {
	ID            int64     `json:"id"`
	Mobile        string    `json:"mobile"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Qualification string    `json:"qualification"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProfileRequest completes registration after a first OTP login.
type CreateProfileRequest struct {
	ProfileToken  string `json:"profile_token" binding:"required"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Email         string `json:"email" binding:"required,email,max=254"`
	Qualification string `json:"qualification" binding:"required,min=2,max=100"`
}

// NormalizeMobile reduces a phone number to "+" followed by its digits.
// Input without any digit yields "".
func NormalizeMobile(raw string) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}
