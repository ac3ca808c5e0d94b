package persist

import (
	"encoding/json"
	"os"

	"github.com/karlbackan/gigaverse-bot-sub001/ctw"
	"github.com/pkg/errors"
)

// ErrPersistenceCorrupt is returned when neither the primary file nor its
// backup can be parsed or pass structural validation.
var ErrPersistenceCorrupt = errors.New("persist: state file is corrupt")

// ErrVersionMismatch is returned on an incompatible major version with no
// registered migration path.
var ErrVersionMismatch = errors.New("persist: incompatible schema version")

func backupPath(path string) string { return path + ".bak" }
func tempPath(path string) string   { return path + ".tmp" }

// Save writes doc to path atomically: the body is written to a sibling
// temporary file and fsynced, the previous file (if any) is rotated to
// path+".bak", and the temp file is renamed over path. A partially
// written file can never become the last-good save, since the rename is
// the only step that makes the new content visible at path.
func Save(path string, doc Document) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "persist: marshal document")
	}

	tmp := tempPath(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "persist: create temp file %s", tmp)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return errors.Wrapf(err, "persist: write temp file %s", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "persist: fsync temp file %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "persist: close temp file %s", tmp)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, backupPath(path)); err != nil {
			return errors.Wrapf(err, "persist: rotate backup for %s", path)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "persist: stat %s", path)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist: rename %s -> %s", tmp, path)
	}
	return nil
}

func copyFile(src, dst string) error {
	body, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, body, 0o644)
}

// Load reads and validates the document at path, failing over to
// path+".bak" if the primary cannot be parsed or fails structural
// validation. A primary with an incompatible major version is reported
// as ErrVersionMismatch without failing over. If both are unreadable, it
// returns ErrPersistenceCorrupt;
// the caller (a CLI main) decides whether --allow-fresh permits starting
// from an empty registry instead.
func Load(path string) (Document, error) {
	doc, primaryErr := loadOne(path)
	if primaryErr == nil {
		return doc, nil
	}
	if errors.Cause(primaryErr) == ErrVersionMismatch {
		return Document{}, primaryErr
	}

	doc, backupErr := loadOne(backupPath(path))
	if backupErr == nil {
		return doc, nil
	}

	return Document{}, errors.Wrapf(ErrPersistenceCorrupt, "primary: %v; backup: %v", primaryErr, backupErr)
}

func loadOne(path string) (Document, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "persist: read %s", path)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Document{}, errors.Wrapf(err, "persist: parse %s", path)
	}

	versionStr, _ := raw["version"].(string)
	major, minor, _, err := parseVersion(versionStr)
	if err != nil {
		return Document{}, errors.Wrapf(err, "persist: %s", path)
	}
	curMajor, curMinor, _, err := parseVersion(CurrentVersion)
	if err != nil {
		return Document{}, err
	}
	if major != curMajor {
		return Document{}, errors.Wrapf(ErrVersionMismatch, "%s: file is %s, current is %s", path, versionStr, CurrentVersion)
	}
	if minor < curMinor {
		raw, err = applyMigrations(raw, major, minor)
		if err != nil {
			return Document{}, errors.Wrapf(err, "persist: %s", path)
		}
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return Document{}, errors.Wrapf(err, "persist: re-marshal %s after migration", path)
	}
	var doc Document
	if err := json.Unmarshal(migrated, &doc); err != nil {
		return Document{}, errors.Wrapf(err, "persist: decode %s", path)
	}

	if err := validate(doc); err != nil {
		return Document{}, errors.Wrapf(err, "persist: %s", path)
	}
	return doc, nil
}

// validate checks the structural invariants spec.md §7 calls out for
// PersistenceCorrupt: every ctw node's total must equal the sum of its
// counts.
func validate(doc Document) error {
	for id, od := range doc.Opponents {
		if err := validateNode(od.CTW.Root); err != nil {
			return errors.Wrapf(err, "opponent %s", id)
		}
	}
	return nil
}

func validateNode(n *ctw.NodeState) error {
	if n == nil {
		return nil
	}
	sum := n.Counts.Rock + n.Counts.Paper + n.Counts.Scissor
	if sum != n.Total {
		return errors.Errorf("node total %d != sum of counts %d", n.Total, sum)
	}
	for name, child := range n.Children {
		if err := validateNode(child); err != nil {
			return errors.Wrapf(err, "child %s", name)
		}
	}
	return nil
}
