package domain

// User is an account that can log in and mutate the catalogue.
// There is no per-user password: login checks the server's shared secret.
type User struct {
	Record
	Username      string `json:"username"`
	FavoriteGenre string `json:"favorite_genre"`
}
