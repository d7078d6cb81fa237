package restructure

// Exports for testing. These allow black-box tests to inspect prompts
// without modifying the public API.
var BuildSystemPrompt = buildSystemPrompt
