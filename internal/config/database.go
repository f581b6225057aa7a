package config

import (
	"fmt"
	"strings"
)

// DSN returns a go-sql-driver/mysql data source name. A configured
// ConnectionString is used directly; otherwise the discrete fields are
// assembled. parseTime and a UTC session location are always enforced so
// timestamps scan as time.Time in UTC.
func (d *DatabaseConfig) DSN() string {
	if d.ConnectionString != "" {
		dsn := d.ConnectionString
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		if !strings.Contains(dsn, "loc=") {
			dsn += "&loc=UTC"
		}
		return dsn
	}

	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}
