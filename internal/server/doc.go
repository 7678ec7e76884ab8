// Package server publishes engine snapshots to socket.io clients and accepts
// console commands from them.
//
// Events:
//
//	graph    server -> client   a registry.Snapshot, sent on connect and then
//	                            at the broadcast interval whenever something
//	                            changed
//	command  client -> server   one console line (string)
//	result   server -> client   a Result for the command
package server
