package service

import "errors"

var (
	// ErrInvalidInput rejects malformed operation input before any store
	// access happens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidPromo rejects promo codes the ledger does not know.
	ErrInvalidPromo = errors.New("unknown promo code")
)
