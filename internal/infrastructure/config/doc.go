// Package config loads and validates the daemon configuration.
//
// Resolution happens in three layers, each overriding the last:
// built-in defaults, the YAML config file, and RIGLAB_* environment
// variables. The result is validated before it is returned, so a
// *Config handed to the rest of the daemon is always usable.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Environment overrides exist so secrets stay out of the config file:
// set RIGLAB_MQTT_PASSWORD and RIGLAB_INFLUXDB_TOKEN in the service
// environment rather than writing them to disk. If credentials must
// live in the file, keep it at mode 0600.
package config
