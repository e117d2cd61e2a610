package models

// User is the authenticated account.
type User struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Email          string `json:"email" yaml:"email"`
	ContactEmail   string `json:"contactEmail,omitempty" yaml:"contact_email,omitempty"`
	ContactPhone   string `json:"contactPhone,omitempty" yaml:"contact_phone,omitempty"`
	RegistrationNo string `json:"registrationNo,omitempty" yaml:"registration_no,omitempty"`
	IsVerified     bool   `json:"isVerified" yaml:"is_verified"`
	Type           string `json:"type" yaml:"type"`
	WebURL         string `json:"webUrl,omitempty" yaml:"web_url,omitempty"`
}

// UserFormInfo is the contact block shown on public forms.
type UserFormInfo struct {
	ContactEmail   string `json:"contactEmail"`
	ContactPhone   string `json:"contactPhone"`
	RegistrationNo string `json:"registrationNo"`
}

// SignInRequest holds the sign-in credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is returned by a successful sign-in.
type SignInResponse struct {
	User     User `json:"user"`
	Security struct {
		PrivateKey string `json:"privateKey"`
		Token      struct {
			AuthToken string `json:"authToken"`
			UserID    string `json:"userId"`
			ExpiresAt string `json:"expiresAt"`
		} `json:"token"`
	} `json:"security"`
}
