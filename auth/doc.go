// Package auth provides signed anti-replay tokens and role based permissions
// for gotable dispatchers.
package auth
