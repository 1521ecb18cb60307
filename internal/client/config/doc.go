// Package config loads runtime configuration for the infosec CLI.
//
// Sources, lowest precedence first: built-in defaults, an optional JSON file
// selected with -c or -config, then command-line flags.
//
// Supported flags
//
//	-a string   address:port of the auth server gRPC endpoint
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
