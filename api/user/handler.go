package user

// UserHandler serves account endpoints.
type UserHandler struct {
	CookieDomain string
}
