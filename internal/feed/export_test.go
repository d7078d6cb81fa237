package feed

// Exports for testing.
var HTMLToText = htmlToText
