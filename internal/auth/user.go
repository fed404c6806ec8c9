package auth

// CurrentUser is the capability object representing an authenticated caller.
// It is resolved once by the session middleware and passed explicitly into
// every owner-scoped operation; nothing reads identity from ambient state.
type CurrentUser struct {
	ID string
}

// Valid reports whether the capability identifies a user.
func (u CurrentUser) Valid() bool {
	return u.ID != ""
}
