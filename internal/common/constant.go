package common

// AuthorizationHeaderName carries the bearer token on write requests when
// authentication is enabled.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "
