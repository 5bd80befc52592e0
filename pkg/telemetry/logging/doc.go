// Package logging builds the process-wide slog.Logger.
//
// The logger is a standard slog JSON or text logger wrapped with two
// handlers: one that injects request-scoped fields carried on the
// context (request id, credential, model), and one that redacts secrets
// such as API keys and bearer tokens before they reach the output.
package logging
