package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~int64 | ~uint
}

func CheckPositive[T Number](number T, name string) error {
	if number <= 0 {
		return cerrors.Wrapf(NonPositiveError, "%s is %d", name, number)
	}
	return nil
}

func CheckNonNegative[T Number](number T, name string) error {
	if number < 0 {
		return cerrors.Wrapf(NegativeError, "%s is %d", name, number)
	}
	return nil
}
