// Package descriptor builds M-of-N P2WSH multisig policies from BIP84
// account public keys and derives their witness scripts and addresses.
//
// Participants are sorted once by their compressed account public key when a
// Descriptor is built. That order is kept for every derived index, so two
// callers supplying the same key set in any order get byte-identical scripts.
// The text form is a BIP380 output descriptor of the shape
//
//	wsh(multi(2,[d34db33f/84h/1h/0h]tpub.../0/*,...))#checksum
package descriptor
