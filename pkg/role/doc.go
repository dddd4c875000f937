// Package role manages roles and their permission grants.
package role
