// Package errors provides structured errors with codes that map to HTTP statuses.
//
// Services return *Error values for anything a client is allowed to see:
//
//	return errors.New(errors.ErrCodeInvalidCredentials, "Invalid email or password")
//
// Handlers pass every error to Render, which writes {"detail": ..., "code": ...}
// with the status for the code. Errors that are not *Error are logged and
// rendered as an opaque 500 so storage details never reach the client.
//
// Wrap keeps the cause for errors.Is and errors.As:
//
//	if err != nil {
//		return errors.InternalWrap(err, "failed to load user")
//	}
package errors
