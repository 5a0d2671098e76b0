package config

import "strings"

// normalizeDatabaseConfig trims every part and folds the username/db_name
// aliases into user/name. Missing parts are filled by DSNValue.
func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	for _, s := range []*string{&cfg.DSN, &cfg.URL, &cfg.Host, &cfg.User, &cfg.Username, &cfg.Password, &cfg.Name, &cfg.DBName, &cfg.Charset, &cfg.Loc} {
		*s = strings.TrimSpace(*s)
	}
	if cfg.User == "" {
		cfg.User = cfg.Username
	}
	if cfg.Name == "" {
		cfg.Name = cfg.DBName
	}
	cfg.Params = cleanParams(cfg.Params)
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Scheme = strings.ToLower(strings.TrimSpace(cfg.Scheme))
	cfg.Params = cleanParams(cfg.Params)
	return cfg
}

// normalizeRedisRawURL accepts "host:port/db" shorthand for redis URLs.
func normalizeRedisRawURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		return raw
	}
	return "redis://" + raw
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if o := strings.TrimSpace(origin); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	if env = strings.ToLower(strings.TrimSpace(env)); env != "" {
		return env
	}
	return defaultEnv
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	paths.Logs = strings.TrimSpace(paths.Logs)
	return paths
}

// normalizeDirectoryConfig gives the namespace exactly one leading slash and
// no trailing one, and lowercases the default status.
func normalizeDirectoryConfig(cfg DirectoryConfig) DirectoryConfig {
	cfg.Namespace = "/" + strings.Trim(strings.TrimSpace(cfg.Namespace), "/")
	if cfg.Namespace == "/" {
		cfg.Namespace = defaultAPINamespace
	}
	cfg.DefaultStatus = strings.ToLower(strings.TrimSpace(cfg.DefaultStatus))
	if cfg.DefaultStatus == "" {
		cfg.DefaultStatus = defaultListingStatus
	}
	if strings.TrimSpace(cfg.EditURLTemplate) == "" {
		cfg.EditURLTemplate = defaultEditURLTemplate
	}
	return cfg
}

// cleanParams drops params whose key or value is blank.
func cleanParams(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
