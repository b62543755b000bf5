// Package services defines the business logic for the offer pipeline, user
// registration, and the expense ledger. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing replies is performed at the handler layer.
package services

import "errors"

var (
	// ErrMissingAmount is returned when the /compra command carries no
	// arguments at all.
	ErrMissingAmount = errors.New("amount argument is missing")

	// ErrInvalidAmount is returned when the amount argument of /compra
	// cannot be parsed as a decimal number.
	ErrInvalidAmount = errors.New("amount is not a valid number")

	// ErrOfferUnresolved indicates that an upserted offer could not be
	// re-read by its own identity key. It marks a persistence
	// inconsistency on a single candidate, not a batch failure.
	ErrOfferUnresolved = errors.New("offer not resolvable after upsert")
)
