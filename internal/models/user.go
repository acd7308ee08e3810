package models

// User is a logged-in participant tracked by the presence service.
// LastSeen is Unix milliseconds and only ever moves forward.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastSeen int64  `json:"lastSeen"`
}

type LoginRequest struct {
	Name string `json:"name"`
}

type LoginResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type LogoutRequest struct {
	UserID string `json:"userId"`
}

type HeartbeatRequest struct {
	UserID string `json:"userId"`
}
