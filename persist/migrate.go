package persist

import "github.com/pkg/errors"

// migrationFunc transforms the raw decoded JSON of an older minor version
// into the shape the current minor version expects. Migrations are pure:
// they take a document and return a new one, never mutating global state.
type migrationFunc func(map[string]interface{}) (map[string]interface{}, error)

// migrations is keyed by source version "major.minor.0" and run in increasing
// order up to CurrentVersion's minor. There are none yet: this is the
// registry 1.1, 1.2, ... migrations attach to as the schema evolves.
var migrations = map[string]migrationFunc{}

// applyMigrations runs every registered migration between the document's
// declared version and CurrentVersion, in minor-version order. A major
// version mismatch is the caller's responsibility to reject before
// calling this.
func applyMigrations(raw map[string]interface{}, fromMajor, fromMinor int) (map[string]interface{}, error) {
	curMajor, curMinor, _, err := parseVersion(CurrentVersion)
	if err != nil {
		return nil, err
	}
	if fromMajor != curMajor {
		return nil, errors.Errorf("persist: cannot migrate across major version %d -> %d", fromMajor, curMajor)
	}
	for minor := fromMinor; minor < curMinor; minor++ {
		key := formatVersion(fromMajor, minor, 0)
		migrate, ok := migrations[key]
		if !ok {
			return nil, errors.Errorf("persist: no migration registered for %s", key)
		}
		raw, err = migrate(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: migrating from %s", key)
		}
	}
	return raw, nil
}
