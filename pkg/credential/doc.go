// Package credential turns member secrets into storable one-way hashes and
// checks secrets against them.
//
// Hashes use Argon2id with a random per-record salt and are encoded in the
// PHC string format, so the parameters travel with each hash:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>
//
// Encoded hashes are treated as untrusted input when verifying; hashes whose
// cost parameters are far above the configured ones are refused.
package credential
