// Package config loads the fetcher configuration from defaults, a YAML file,
// .env files, XFOLLOWERS_* environment variables and command line flags, in
// increasing order of precedence.
//
//	cfg, err := config.Load("", map[string]interface{}{
//		"request": "following",
//		"type":    "verified",
//	})
//
// The supplier API keys may also come from the legacy X-RapidAPI-Key and
// X-JoJAPI-Key variables.
package config
