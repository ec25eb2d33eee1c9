package dto

// RefreshInput carries the refresh-token cookie value plus request metadata;
// none of it comes from the request body.
type RefreshInput struct {
	RefreshToken string
	IPAddress    string
	UserAgent    string
}
