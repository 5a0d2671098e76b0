package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the MySQL DSN: an explicit dsn/url wins, otherwise it is
// assembled from the (already normalized) connection parts.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.URL); v != "" {
		return v
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(orDefault(c.Host, defaultDBHost), strconv.Itoa(orDefaultInt(c.Port, defaultDBPort)))
	mc.User = orDefault(c.User, defaultDBUser)
	mc.Passwd = c.Password
	mc.DBName = orDefault(c.Name, defaultDBName)
	mc.Params = map[string]string{
		"charset":   orDefault(c.Charset, defaultDBCharset),
		"parseTime": strconv.FormatBool(c.ParseTime),
		"loc":       orDefault(c.Loc, defaultDBLoc),
	}
	for k, v := range c.Params {
		mc.Params[k] = v
	}
	return mc.FormatDSN()
}

// URLValue returns the redis:// (or rediss://) URL go-redis parses.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	scheme := c.Scheme
	if scheme != "redis" && scheme != "rediss" {
		scheme = "redis"
		if c.TLS {
			scheme = "rediss"
		}
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(orDefault(c.Host, defaultRedisHost), strconv.Itoa(orDefaultInt(c.Port, defaultRedisPort))),
		Path:   "/" + strconv.Itoa(db),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}
	if len(c.Params) > 0 {
		q := neturl.Values{}
		for k, v := range c.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
