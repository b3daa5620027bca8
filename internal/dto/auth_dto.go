package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateUserRequest keeps fullName camel-cased for compatibility with existing clients.
type CreateUserRequest struct {
	Email    string  `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"omitempty,min=8"`
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Role     string  `json:"role"     validate:"omitempty,oneof=admin staff"`
	BranchID *string `json:"branch_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	FullName       *string `json:"full_name"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id"`
	BranchID       *string `json:"branch_id"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

type CreateUserResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}
