package models

// Player is an account row; Password holds the bcrypt hash and never leaves the server.
type Player struct {
	Id       int    `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email,omitempty"`
	Password string `db:"password" json:"-"`
}
