package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./bookkinder.db"

	// DefaultClientSessionPath is where the CLI client keeps its encrypted session
	DefaultClientSessionPath = "./bookkinder-session.db"

	// DefaultAPIBaseURL points the CLI client at a local `serve`
	DefaultAPIBaseURL = "http://localhost:8000/api"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)
