// Package config provides configuration management for the template engine.
//
// Configuration is read from an optional .env file in the working directory
// and from environment variables, then validated. All options have defaults
// that match the engine defaults.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
