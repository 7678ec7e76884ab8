// Package node defines the vertex type of the stat graph and the plain data
// that flows through it: handles, kinds, combine inputs and conditional links.
//
// A Node never points at another Node. Links are Handles into the arena
// owned by package graph.
package node
