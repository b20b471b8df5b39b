// Package jwt issues and verifies the email verification credential.
//
// A credential is an HS512 signed JWT whose subject is the verified email
// address. The token ID (jti) lets a downstream consumer accept each
// credential exactly once.
package jwt
