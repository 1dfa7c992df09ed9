package http

type JoinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type ValidatePasswordResetTokenRequest struct {
	Token string `json:"token"`
}

type CompletePasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskRequest fields are pointers so an omitted field and an
// explicit empty value stay distinguishable.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// SearchTasksRequest binds from query parameters. Timestamps are
// RFC3339 strings and parsed by the controller.
type SearchTasksRequest struct {
	Search        string `query:"search"`
	Status        string `query:"status"`
	CreatedFrom   string `query:"created_from"`
	CreatedTo     string `query:"created_to"`
	CompletedFrom string `query:"completed_from"`
	CompletedTo   string `query:"completed_to"`
	Page          int    `query:"page"`
	Limit         int    `query:"limit"`
}
