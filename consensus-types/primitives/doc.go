// Package primitives defines the core scalar types used across consensus
// code, such as slots and epochs. Using distinct named types prevents the
// two unit systems from being mixed up in arithmetic.
package primitives
