// Package externalprovider federates sign-in through Google.
//
// GoogleVerifier checks an ID token with Google's tokeninfo endpoint and
// returns the normalized profile. ExternalProviderService reconciles that
// profile with stored users (by google id, then by email, else a new user)
// and issues a session through the login package.
package externalprovider
