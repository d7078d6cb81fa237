package translate

import "errors"

// ErrNoTarget indicates the translator was built without a target language.
var ErrNoTarget = errors.New("target language is required")
