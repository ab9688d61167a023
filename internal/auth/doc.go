// Package auth implements trust-on-first-use credential binding. The first
// mutating request for an unbound identity that carries a Basic credential
// defines that identity's secret; later requests must present the same
// credential. Only a SHA3-512 digest of the credential is ever persisted.
package auth
