package handlers

const (
	ErrInvalidRequest      = "Invalid request body"
	ErrFillAllFields       = "Please fill in all fields"
	ErrMissingCredentials  = "Missing login credentials"
	ErrInvalidCredentials  = "Invalid username or password"
	ErrMissingEmailData    = "Missing or invalid email data"
	ErrUnauthorized        = "Unauthorized"
	ErrNotFound            = "Not found"
	ErrSaveRegistration    = "Failed to save registration"
	ErrInternalServerError = "Internal server error"
)
