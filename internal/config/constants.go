package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8787
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "directory"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultAPINamespace           = "/wp-json/bdp-api-helper/v1"
	defaultRegistryRefreshMinutes = 10
	defaultTaxonomyRefreshMinutes = 5
	defaultEditURLTemplate        = "/wp-admin/post.php?post=%d&action=edit"
	defaultListingStatus          = "pending"
)
