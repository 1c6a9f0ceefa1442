// Package domain defines the match and commentary types and the contracts
// between the application layer, storage and the realtime hub.
//
// No implementation code lives here, only types and consumer-side interfaces.
package domain
