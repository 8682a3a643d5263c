package models

// Session is the browser's authenticated state: a bearer token plus the
// user info returned alongside it. A zero Session means logged out.
type Session struct {
	Token string
	User  UserInfo
}

// IsAuthenticated reports whether a token is present. The token is not validated.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}
