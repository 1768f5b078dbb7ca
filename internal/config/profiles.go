package config

import (
	"fmt"
	"os"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Profiles map[string]profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	Strength    float64 `yaml:"strength"`
	Trust       float64 `yaml:"trust"`
	Formality   string  `yaml:"formality"`
	Reciprocity float64 `yaml:"reciprocity"`
}

// LoadQualityProfiles reads category quality overrides from a YAML file:
//
//	profiles:
//	  employment:
//	    strength: 0.8
//	    trust: 0.7
//	    formality: contractual
//	    reciprocity: 0.6
//
// An empty path yields no overrides.
func LoadQualityProfiles(path string) (domain.ProfileSet, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quality profiles: %w", err)
	}
	return ParseQualityProfiles(data)
}

func ParseQualityProfiles(data []byte) (domain.ProfileSet, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse quality profiles: %w", err)
	}

	set := make(domain.ProfileSet, len(f.Profiles))
	for name, p := range f.Profiles {
		if !domain.ValidCategory(name) {
			return nil, fmt.Errorf("quality profiles: unknown category %q", name)
		}
		if !domain.ValidFormality(p.Formality) {
			return nil, fmt.Errorf("quality profiles: %s: unknown formality %q", name, p.Formality)
		}
		for dim, v := range map[string]float64{"strength": p.Strength, "trust": p.Trust, "reciprocity": p.Reciprocity} {
			if v < 0 || v > 1 {
				return nil, domain.QualityOutOfRangeError(fmt.Sprintf("%s.%s = %v", name, dim, v))
			}
		}
		set[domain.RelationshipCategory(name)] = domain.QualityProfile{
			Strength:    p.Strength,
			Trust:       p.Trust,
			Formality:   domain.Formality(p.Formality),
			Reciprocity: p.Reciprocity,
		}
	}
	return set, nil
}
