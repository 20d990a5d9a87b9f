package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Corrections maps a misspelled catalog name to the name the marketplace uses.
type Corrections map[string]string

type correctionsFile struct {
	Corrections Corrections `toml:"corrections"`
}

// LoadCorrections reads the [corrections] table from a TOML file. A missing file
// yields an empty table.
func LoadCorrections(path string) (Corrections, error) {
	if path == "" {
		return Corrections{}, nil
	}

	var file correctionsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Corrections{}, nil
		}
		return nil, fmt.Errorf("error decoding corrections file %s: %w", path, err)
	}
	if file.Corrections == nil {
		return Corrections{}, nil
	}
	for from, to := range file.Corrections {
		if to == "" {
			return nil, fmt.Errorf("corrections file %s: empty replacement for %q", path, from)
		}
	}
	return file.Corrections, nil
}
