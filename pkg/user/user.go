package user

type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password []byte `json:"-"`
	Id       string `json:"id"`
}
