// Package msigcrypto holds the secret-handling primitives used by the key
// store: locked memory for seeds, passphrase encryption at rest, and the
// process random source.
package msigcrypto
