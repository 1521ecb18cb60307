// Package common contains shared constants and sentinel errors used across
// the auth server and its CLI client.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// TokenTypeBearer is reported to clients alongside every issued token pair.
const TokenTypeBearer = "Bearer"
