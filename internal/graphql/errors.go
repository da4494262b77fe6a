package graphql

import "github.com/mo-amir99/training-portal/pkg/apperrors"

// gqlError exposes only the client-safe message and the coded extensions.
type gqlError struct {
	app *apperrors.AppError
}

func (e gqlError) Error() string { return e.app.Message() }

// Extensions is picked up by graphql-go when formatting the error.
func (e gqlError) Extensions() map[string]interface{} { return e.app.Extensions() }

func (e gqlError) Unwrap() error { return e.app }

func toGraphQLError(app *apperrors.AppError) error {
	return gqlError{app: app}
}
