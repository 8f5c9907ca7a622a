// Package users owns user records: persistence behind the Repository interface,
// business rules in UserService, and the HTTP handlers for the /users routes.
package users

// User is a stored user record. PasswordHash is never serialized.
type User struct {
	ID           int64  `json:"id" example:"1"`
	Name         string `json:"name" example:"Maria Silva"`
	Email        string `json:"email" example:"maria@example.com"`
	PasswordHash string `json:"-"`
}
