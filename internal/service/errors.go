package service

import "github.com/geocoder89/lostfound/internal/apperr"

var (
	errMissingIdentity = apperr.Unauthorized("unauthorized", "Authentication required")
	errForbidden       = apperr.Forbidden("forbidden", "You are not allowed to perform this action")
)
