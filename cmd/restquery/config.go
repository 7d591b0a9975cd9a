package main

import "time"

// configuration is read from RESTQUERY_* environment variables. Flags
// override it.
type configuration struct {
	MongoURI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database        string `default:"test"`
	Collection      string
	File            string
	References      map[string]string
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"warning"`
	LogJSON         bool          `envconfig:"LOG_JSON"`
	DefaultLimit    int64         `envconfig:"DEFAULT_LIMIT" default:"1000"`
	IgnoredKeys     []string      `envconfig:"IGNORED_KEYS"`
	AllowJavaScript bool          `envconfig:"ALLOW_JAVASCRIPT"`
	Timeout         time.Duration `default:"30s"`
}
