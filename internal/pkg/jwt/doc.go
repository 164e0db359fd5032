// Package jwt verifies the HS512 bearer tokens the identity platform issues
// and carries the verified claims through request contexts.
package jwt
