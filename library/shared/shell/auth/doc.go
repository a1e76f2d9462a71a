// Package auth verifies bearer tokens and decides what an authenticated principal may do.
//
// Tokens are HS256 signed JWTs carrying the user id and the staff flag. Policy is the single
// place that turns the staff flag into capabilities; the HTTP layer asks it instead of
// branching on the flag itself.
package auth
