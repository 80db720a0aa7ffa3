package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// PgPassEntry represents a line in .pgpass file
type PgPassEntry struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PgPassPath returns PGPASSFILE, or ~/.pgpass
func PgPassPath() (string, error) {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpass"), nil
}

// ParsePgPass reads the pgpass file at path. A missing file has no entries.
// Like libpq, a file readable by group or others is rejected.
func ParsePgPass(path string) ([]PgPassEntry, error) {
	if runtime.GOOS != "windows" {
		fileInfo, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return []PgPassEntry{}, nil
			}
			return nil, err
		}

		if mode := fileInfo.Mode(); mode.Perm()&0077 != 0 {
			return nil, fmt.Errorf("%s has insecure permissions %v, must be 0600", filepath.Base(path), mode.Perm())
		}
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []PgPassEntry{}, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []PgPassEntry
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parsePgPassLine(line)
		if err != nil {
			continue // Skip invalid lines
		}

		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// parsePgPassLine parses a single .pgpass line
// Format: hostname:port:database:username:password
// Handles escape sequences: \: and \\
func parsePgPassLine(line string) (PgPassEntry, error) {
	parts := make([]string, 0, 5)
	var current strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]

		if escaped {
			current.WriteByte(ch)
			escaped = false
		} else if ch == '\\' {
			escaped = true
		} else if ch == ':' {
			parts = append(parts, current.String())
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	// Add the last field
	parts = append(parts, current.String())

	if len(parts) != 5 {
		return PgPassEntry{}, os.ErrInvalid
	}

	// zero port is the wildcard
	port := 0
	if parts[1] != "*" {
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			return PgPassEntry{}, fmt.Errorf("invalid port: %s", parts[1])
		}
		if p < 1 || p > 65535 {
			return PgPassEntry{}, fmt.Errorf("port out of range: %d", p)
		}
		port = p
	}

	return PgPassEntry{
		Host:     parts[0],
		Port:     port,
		Database: parts[2],
		User:     parts[3],
		Password: parts[4],
	}, nil
}

// FindPassword returns the password of the first entry matching cfg
func FindPassword(path string, cfg models.ConnectionConfig) (string, error) {
	entries, err := ParsePgPass(path)
	if err != nil {
		return "", err
	}

	port := strconv.Itoa(cfg.Port)
	for _, entry := range entries {
		if matches(entry.Host, cfg.Host) &&
			(entry.Port == 0 || strconv.Itoa(entry.Port) == port) &&
			matches(entry.Database, cfg.Database) &&
			matches(entry.User, cfg.User) {
			return entry.Password, nil
		}
	}

	return "", nil
}

// matches checks if pattern matches value (* is wildcard)
func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
