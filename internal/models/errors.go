package models

import "errors"

// ErrInvalidFixture marks provider fixtures that cannot be normalized
var ErrInvalidFixture = errors.New("invalid fixture")
