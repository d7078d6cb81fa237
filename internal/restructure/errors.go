package restructure

import "errors"

// ErrEmptyTranscript indicates the raw transcript is empty or whitespace only.
var ErrEmptyTranscript = errors.New("transcript is empty")
