package quantity

import "errors"

var (
	// ErrMalformedQuantity is returned when a value string is neither numeric
	// nor a recognized opaque literal.
	ErrMalformedQuantity = errors.New("quantity: malformed value")
	// ErrIncompatibleUnits is returned when two quantities of different kinds
	// are compared.
	ErrIncompatibleUnits = errors.New("quantity: incompatible units")
)
