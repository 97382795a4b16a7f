// Package config provides configuration parsing for the democrat CLI.
//
// The configuration is stored in democrat.yaml (or democrat.json) in the
// working directory. This package handles loading, saving, and validating
// it.
//
// # Configuration File Structure
//
//	server:
//	  host: localhost
//	  port: 7070
//	metrics:
//	  enabled: true
//	  path: /metrics
//	  namespace: democrat
//	codec:
//	  format: json
//	log:
//	  level: info
//	demo:
//	  tree: app
//	  drive: 2s
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
