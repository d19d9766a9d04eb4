// Package config loads runtime configuration for the devcms client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. The format follows
//     the extension: .json, .toml, .yaml or .yml.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Durations in files are strings such as "3s" (timex.Duration):
//
//	server_endpoint_addr = "http://127.0.0.1:3333"
//	online_check_interval = "3s"
//	sync_adapter = "nats"
//	nats_url = "nats://127.0.0.1:4222"
//
// Environment variables are not read.
package config
