// Package config holds the embedded default configuration files.
package config

import _ "embed"

//go:embed display.toml
var DisplayToml []byte

//go:embed proxy.toml
var ProxyToml []byte
