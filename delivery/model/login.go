package model

import "ory-kratos-login/animation"

// LoginStatusResponse is polled by the login page while a sign-in is pending.
type LoginStatusResponse struct {
	Loading  bool   `json:"loading"`
	Redirect string `json:"redirect,omitempty"`
}

// VariantsResponse maps a variant name to its resolved target.
type VariantsResponse map[string]animation.Target

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Identity is the subset of a Kratos identity shown on the home page.
type Identity struct {
	ID    string
	Email string
}
