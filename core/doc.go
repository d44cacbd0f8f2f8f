// Package core contains the receiver domain contracts, entities and the
// channel/remote-registry service. Codec, dispatch and storage adapters
// depend on this package; core must not depend on them.
package core
