// Package routing implements the dispatcher's routing strategies. A Router
// decides, for each inbound user message, inbound delivery event and outbound
// reply, which endpoint(s) on the other side of the dispatcher receive it.
//
// Six variants exist, selected by the `router` field of the routing
// configuration:
//
//   - simple: static table lookup from transport name to application names
//   - transport_to_transport: republishes inbound traffic onto other transports
//   - to_addr: regex match on the message to_addr
//   - from_addr_multiplex: presents a pool of single-address transports as one
//   - user_grouping: persistent round-robin assignment of users to groups
//   - content_keyword: keyword rules with event correlation over a KV store
//
// Routers publish through the Publisher interface and never see the bus
// directly. Routing misses are reported to a Diagnostics sink and dropped;
// only infrastructure failures and configuration mistakes surface as errors.
package routing
