package app

import "errors"

var (
	// ErrNoPartner indicates the caller has no active partnership.
	ErrNoPartner        = errors.New("no active partnership")
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrRecipeForbidden  = errors.New("recipe belongs to another user")
	ErrRequestNotFound  = errors.New("partner request not found")
	ErrRequestForbidden = errors.New("partner request is addressed to someone else")
	ErrSelfRequest      = errors.New("cannot send a partner request to yourself")
	ErrShareNotFound    = errors.New("shared recipe not found")
	ErrShareForbidden   = errors.New("shared recipe belongs to another pair")
	ErrNoObjectStore    = errors.New("object storage is not configured")
)
