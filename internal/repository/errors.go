package repository

import "errors"

// ErrNotFound reports that no row matched a lookup. Callers rely on it to
// tell credential absence apart from store failures, so implementations
// must wrap it rather than invent their own not-found errors.
var ErrNotFound = errors.New("not found")
