// Package geoip resolves client addresses to countries using a MaxMind MMDB
// database (GeoLite2-Country, GeoLite2-City or compatible).
package geoip

import (
	"fmt"
	"net"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Info describes a loaded MMDB database.
type Info struct {
	DatabaseType string
	BuildTime    time.Time
}

// record contains only the fields decoded from the MMDB file.
type record struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// DB is a read-only country lookup table.
type DB struct {
	reader *maxminddb.Reader
}

// Open loads the MMDB file at path.
func Open(path string) (*DB, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %q: %w", path, err)
	}
	return &DB{reader: r}, nil
}

// Info returns metadata about the loaded database.
func (db *DB) Info() Info {
	return Info{
		DatabaseType: db.reader.Metadata.DatabaseType,
		BuildTime:    time.Unix(int64(db.reader.Metadata.BuildEpoch), 0), //nolint:gosec // BuildEpoch is a uint, safe for unix timestamps
	}
}

// Country returns the ISO country code for ip. ok is false for unparsable
// addresses, lookup errors and addresses without a country.
func (db *DB) Country(ip string) (string, bool) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return "", false
	}

	var rec record
	if err := db.reader.Lookup(addr, &rec); err != nil {
		return "", false
	}
	if rec.Country.ISOCode == "" {
		return "", false
	}
	return rec.Country.ISOCode, true
}

// Close releases the database.
func (db *DB) Close() error {
	return db.reader.Close()
}
