// Package config loads the configuration of the atoms CLI.
//
// The configuration is read from atoms.json or atoms.yaml. Missing fields
// take their defaults, and ATOMS_ADDR and ATOMS_LOG_LEVEL override the file.
//
// # Configuration File Structure
//
//	addr: localhost:7070
//	log:
//	  level: debug
//	  format: json
//	devtools:
//	  allowedOrigins: ["http://localhost:5173"]
//	metrics:
//	  enabled: true
//	  namespace: atoms
//	  perAtom: true
//	tracing:
//	  enabled: false
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(path)
//	if err != nil {
//	    return err
//	}
//	logger := cfg.Logger(os.Stderr)
package config
