package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./cypher.db"

	// DefaultPreferencesPath is where the timer preference is persisted
	DefaultPreferencesPath = "./cypher-preferences.yaml"

	DefaultBackupDir = "./backups"
)
