package constant

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Audit action tags.
const (
	ActionLoginSuccess     = "LOGIN_SUCCESS"
	ActionLoginFailed      = "LOGIN_FAILED"
	ActionLoginRateLimited = "LOGIN_RATE_LIMITED"
	ActionAccountLocked    = "ACCOUNT_LOCKED"
	ActionTokenRefresh     = "TOKEN_REFRESH"
	ActionLogout           = "LOGOUT"
	ActionForceLogout      = "FORCE_LOGOUT"
)

// Audit resource types.
const (
	ResourceTypeUser    = "user"
	ResourceTypeSession = "session"
)
