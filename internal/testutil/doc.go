// Package testutil holds shared fixtures for package and integration tests:
// sheet builders on a manual clock, an app harness and value assertions.
package testutil
