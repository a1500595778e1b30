package errors

import "errors"

var ErrNotFound = errors.New("service not found")
