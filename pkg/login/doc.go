// Package login implements local email/password authentication.
//
// LoginService registers users with a bcrypt password hash, verifies
// credentials and issues bearer tokens through a tokengenerator.TokenGenerator.
// Every issued session carries the user's resolved permission map.
//
// Login failures are deliberately indistinguishable: an unknown email, a
// wrong password and an account without a password all return
// "Invalid email or password".
package login
