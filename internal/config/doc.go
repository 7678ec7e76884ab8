// Package config defines the format-agnostic model of a stat sheet, along
// with the Loader interface for reading sheets from various sources.
//
// The `config.Model` is the single source of truth for the `builder`
// package. Concrete loaders, such as the HCL one, live in separate packages.
package config
