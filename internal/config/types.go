package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	Directory      DirectoryConfig       `yaml:"directory"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// DirectoryConfig tunes the listing validation layer.
type DirectoryConfig struct {
	Namespace              string `yaml:"namespace"`
	RegistryRefreshMinutes int    `yaml:"registry_refresh_minutes"`
	TaxonomyRefreshMinutes int    `yaml:"taxonomy_refresh_minutes"`
	EditURLTemplate        string `yaml:"edit_url_template"`
	DefaultStatus          string `yaml:"default_status"`
	// StrictTermNames rejects taxonomies where two enabled terms share a normalized name.
	StrictTermNames bool `yaml:"strict_term_names"`
	// CoerceScalarTags accepts a bare tag string as a one-element list, like categories.
	CoerceScalarTags bool `yaml:"coerce_scalar_tags"`
}

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	DSN            string             `yaml:"dsn"`
	DatabaseURL    string             `yaml:"database_url"`
	RedisURL       string             `yaml:"redis_url"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	Env            string             `yaml:"env"`
	Paths          rawPathsConfig     `yaml:"paths"`
	LogDir         string             `yaml:"log_dir"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	JWTSecret      string             `yaml:"jwt_secret"`
	Timezone       string             `yaml:"timezone"`
	TZ             string             `yaml:"tz"`
	Directory      rawDirectoryConfig `yaml:"directory"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawDirectoryConfig struct {
	Namespace              string `yaml:"namespace"`
	RegistryRefreshMinutes *int   `yaml:"registry_refresh_minutes"`
	TaxonomyRefreshMinutes *int   `yaml:"taxonomy_refresh_minutes"`
	EditURLTemplate        string `yaml:"edit_url_template"`
	DefaultStatus          string `yaml:"default_status"`
	StrictTermNames        *bool  `yaml:"strict_term_names"`
	CoerceScalarTags       *bool  `yaml:"coerce_scalar_tags"`
}
