package model

// SendOTPRequest asks for a one-time code to be sent to a mobile number.
type SendOTPRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
}

// SendOTPResponse confirms a code was issued.
type SendOTPResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// VerifyOTPRequest exchanges a code for tokens.
type VerifyOTPRequest struct {
	Mobile string `json:"mobile" binding:"required,mobile"`
	OTP    string `json:"otp" binding:"required,otp"`
}

// RefreshRequest rotates a token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned by verify-otp, create-profile and refresh.
// Login is false when the mobile number has no profile yet; ProfileToken is
// then the ticket create-profile expects.
type AuthResponse struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	Login        bool       `json:"login"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresIn    int        `json:"expires_in,omitempty"`
	ProfileToken string     `json:"profile_token,omitempty"`
	Candidate    *Candidate `json:"candidate,omitempty"`
}
