package memutils

import "github.com/pkg/errors"

// NonPositiveError is the error returned from CheckPositive if the number being tested is zero or negative
var NonPositiveError error = errors.New("number must be greater than zero")

// NegativeError is the error returned from CheckNonNegative if the number being tested is negative
var NegativeError error = errors.New("number must not be negative")
