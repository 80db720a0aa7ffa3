package models

// ConnectionConfig represents a PostgreSQL connection configuration
type ConnectionConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DiscoverySource indicates where a connection setting came from
type DiscoverySource int

const (
	SourceConfig DiscoverySource = iota
	SourceEnvironment
	SourcePgPass
	SourceKeyring
)

func (s DiscoverySource) String() string {
	switch s {
	case SourceConfig:
		return "Config File"
	case SourceEnvironment:
		return "Environment"
	case SourcePgPass:
		return ".pgpass"
	case SourceKeyring:
		return "Keyring"
	default:
		return "Unknown"
	}
}
