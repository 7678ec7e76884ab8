// Package console is a line-oriented command interface to a running engine.
// The interactive `statgraph console` command and the socket.io `command`
// event both dispatch through it.
package console
