package pipeline

import "errors"

// ErrNoTranscriber indicates Process was called on a Runner without a transcriber.
var ErrNoTranscriber = errors.New("no transcriber configured")
