// Package password provides an argon2id hasher with PHC string encoding.
//
// The reset flow itself never touches password hashes; it hands the new
// plaintext to the account backend. Backends that store credentials
// themselves can use this package for the hashing side.
package password
