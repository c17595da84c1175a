package dto

// RegisterRequest is the panel's sign-up form.
type RegisterRequest struct {
	Name     string `json:"name" binding:"max=120"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"max=40"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest accepts the e-mail under the panel's "identifier" field.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type UserInfo struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

type PlanInfo struct {
	Status   string `json:"status"`
	DaysLeft int    `json:"daysLeft"`
	PlanType string `json:"planType,omitempty"`
	EndsAt   string `json:"endsAt,omitempty"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,max=40"`
}

type RegisterResponse struct {
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
	Message string   `json:"message"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
	Plan  PlanInfo `json:"plan"`
}

type PlanResponse struct {
	Plan PlanInfo `json:"plan"`
	User UserInfo `json:"user"`
}
