package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// InstituteSeed is the layout of an institutes seed file:
//
//	[[institute]]
//	abbreviation = "IVMiIT"
//	name = "Institute of Computational Mathematics and IT"
//	faculties = ["Software Engineering", "Applied Informatics"]
type InstituteSeed struct {
	Institutes []models.Institute `toml:"institute"`
}

// LoadInstituteSeed parses a TOML seed file
func LoadInstituteSeed(path string) ([]models.Institute, error) {
	var seed InstituteSeed
	meta, err := toml.DecodeFile(path, &seed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in seed file: %s", strings.Join(keys, ", "))
	}

	seen := make(map[string]bool, len(seed.Institutes))
	for i, inst := range seed.Institutes {
		if strings.TrimSpace(inst.Abbreviation) == "" {
			return nil, fmt.Errorf("institute #%d has no abbreviation", i+1)
		}
		if seen[inst.Abbreviation] {
			return nil, fmt.Errorf("duplicate institute %s", inst.Abbreviation)
		}
		seen[inst.Abbreviation] = true
	}
	return seed.Institutes, nil
}
