package model

// User is the authenticated admin account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string  `json:"token"`
	User   User    `json:"user"`
	Stores []Store `json:"stores"`
}
