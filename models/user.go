package models

// UserInfo is the user record the remote API returns on login
type UserInfo struct {
	Username string `json:"username"`
}

// Author is the embedded author of an article
type Author struct {
	Username string `json:"username"`
}
