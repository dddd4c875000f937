// Package bootstrap creates the first administrator of an empty identity store.
package bootstrap
