package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrValidation indicates a document is missing required fields
	ErrValidation = errors.New("invalid document")

	// ErrTagExists is returned when creating a tag whose name is taken.
	// The message is shown verbatim in the admin UI.
	ErrTagExists = errors.New("Tag já existe")

	// ErrNotAuthenticated indicates no user is signed in
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrInvalidCredentials indicates a failed email/password check
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrForbidden indicates the user lacks the admin role
	ErrForbidden = errors.New("admin role required")

	// ErrRoleUnknown indicates the role could not be read (e.g. store offline)
	ErrRoleUnknown = errors.New("user role could not be determined")

	// ErrProfileLimit indicates the account already has the maximum profiles
	ErrProfileLimit = errors.New("profile limit reached")

	// ErrLastProfile indicates an attempt to delete the only profile
	ErrLastProfile = errors.New("cannot delete the only profile")

	// ErrInvalidPlan indicates an unknown subscription plan id
	ErrInvalidPlan = errors.New("invalid subscription plan")

	// ErrNoProfile indicates no profile is selected in the session
	ErrNoProfile = errors.New("no profile selected")
)
