// Package broadcast implements the realtime match hub.
//
// A Hub owns a registry of live WebSocket connections and a subscription
// index from match id to subscribers. Each connection has one reader (the
// goroutine that called Accept) and one writer goroutine fed by a small
// bounded channel, so publishing never blocks on a slow peer. A single
// liveness monitor pings every connection on a fixed interval and reaps the
// ones that stayed silent since the previous probe.
//
// Inbound protocol (JSON text frames):
//
//	setSubscriptions{matchIds:[...]}  -> subscriptions{matchIds}
//	subscribe{matchId}                -> subscribed{matchId}
//	unsubscribe{matchId}              -> unsubscribed{matchId}
//	ping{id?, clientTs?}              -> pong{id, clientTs, serverTs}
//
// Malformed input is answered with error{code, message} and never closes
// the connection.
package broadcast
