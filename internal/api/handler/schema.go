package handler

import "github.com/communityboard/board-client/internal/core/domain"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
}

type registerRequest struct {
	Username    string `json:"username"    validate:"required,max=50"`
	Password    string `json:"password"    validate:"required,min=2"`
	DisplayName string `json:"displayName" validate:"max=50"`
}

type roleResponse struct {
	IsAdmin bool        `json:"isAdmin"`
	Role    domain.Role `json:"role"`
}

type suspendRequest struct {
	DurationMinutes int    `json:"durationMinutes" validate:"required"`
	Reason          string `json:"reason"          validate:"required,max=500"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ADMIN"`
}

type publishRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type accountResponse struct {
	Message string              `json:"message"`
	Account domain.AdminAccount `json:"account"`
}

type viewResponse struct {
	ID    int64 `json:"id"`
	Views int64 `json:"views"`
}
