package transcribe

import "errors"

// ErrFileTooLarge indicates the audio exceeds the transcription upload limit.
var ErrFileTooLarge = errors.New("audio file exceeds 25MB upload limit")

// ErrDownload indicates the audio could not be fetched.
var ErrDownload = errors.New("audio download failed")
