// Package config loads environment-driven configuration structs.
//
// Structs declare their variables with caarlos0/env tags. Load parses each
// type once per process and caches it, so packages can load the same config
// independently without re-reading the environment. A .env file in the
// working directory is applied first when present.
package config
