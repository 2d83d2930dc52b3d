// Package poly1305opt implements the Poly1305 one-time message authenticator
// with interchangeable arithmetic back-ends selected at runtime. The poly1305
// package holds the streaming front-end, a portable reference back-end, and
// wider-block back-ends that are promoted by CPU capability only after passing
// a power-on self-test.
package poly1305opt
