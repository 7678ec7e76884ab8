// Package producer implements the things that push modifiers and tags into
// a registry from the outside: equippable items, timed auras and combat
// events.
//
// Every modifier a producer creates carries the producer id as its Source,
// so removing the producer is a single RemoveModifiersBySource call. Tags
// granted by several producers are reference counted and retracted only
// when the last grant is withdrawn.
package producer
