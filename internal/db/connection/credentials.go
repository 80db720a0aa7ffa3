package connection

import (
	"errors"

	"github.com/rebeliceyang/lazycrm/internal/db/discovery"
	"github.com/rebeliceyang/lazycrm/internal/models"
)

// ResolvePassword fills cfg.Password from the first source that has one:
// the config itself, PGPASSWORD, the pgpass file, then the keyring. The
// returned source says where it came from. A nil keyring is skipped.
func ResolvePassword(cfg models.ConnectionConfig, pgpassPath string, ring *PasswordStore) (models.ConnectionConfig, models.DiscoverySource, error) {
	if cfg.Password != "" {
		return cfg, models.SourceConfig, nil
	}
	if pw := discovery.EnvironmentPassword(); pw != "" {
		cfg.Password = pw
		return cfg, models.SourceEnvironment, nil
	}
	if pgpassPath != "" {
		pw, err := discovery.FindPassword(pgpassPath, cfg)
		if err != nil {
			return cfg, models.SourceConfig, err
		}
		if pw != "" {
			cfg.Password = pw
			return cfg, models.SourcePgPass, nil
		}
	}
	if ring != nil {
		pw, err := ring.Get(cfg)
		switch {
		case err == nil:
			cfg.Password = pw
			return cfg, models.SourceKeyring, nil
		case !errors.Is(err, ErrPasswordNotFound):
			return cfg, models.SourceKeyring, err
		}
	}
	// no password; the server may use trust or peer authentication
	return cfg, models.SourceConfig, nil
}
