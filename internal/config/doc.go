// Package config provides luaseri's runtime configuration.
//
// Settings are organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← LUASERI_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/luaseri/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Each layer is a map[string]any tree produced by the loader sub-package.
// The merged tree is decoded into Config and validated before use.
//
// # Example
//
//	[encoder]
//	buffer = "chunked"
//	chunkSize = 128
//	maxDepth = 256
//
//	[input]
//	format = "auto"
//	timeout = "5s"
//
//	[log]
//	level = "info"
package config
