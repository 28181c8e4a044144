package delivery

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// FeeTable maps region -> town -> delivery fee.
type FeeTable map[string]map[string]float64

// DefaultFeeTable is used when no fee table file is configured.
func DefaultFeeTable() FeeTable {
	return FeeTable{
		"Accra": {
			"Osu":         15,
			"Labone":      15,
			"Cantonments": 18,
			"East Legon":  20,
			"Dansoman":    20,
			"Madina":      25,
		},
		"Tema": {
			"Community 1":  20,
			"Community 11": 22,
			"Community 25": 30,
		},
		"Kumasi": {
			"Adum":    30,
			"Asokwa":  30,
			"Bantama": 35,
		},
	}
}

// LoadFeeTable reads a YAML document of the form
//
//	Accra:
//	  Osu: 15
func LoadFeeTable(path string) (FeeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fee table: %w", err)
	}
	var table FeeTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse fee table: %w", err)
	}
	for region, towns := range table {
		for town, fee := range towns {
			if fee < 0 {
				return nil, fmt.Errorf("negative fee for %s (%s)", town, region)
			}
		}
	}
	return table, nil
}

func (t FeeTable) HasRegion(region string) bool {
	_, ok := t[region]
	return ok
}

// Fee looks up the fee for a (region, town) pair.
func (t FeeTable) Fee(region, town string) (float64, bool) {
	towns, ok := t[region]
	if !ok {
		return 0, false
	}
	fee, ok := towns[town]
	return fee, ok
}

func (t FeeTable) Regions() []string {
	regions := make([]string, 0, len(t))
	for region := range t {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

func (t FeeTable) Towns(region string) []string {
	towns := make([]string, 0, len(t[region]))
	for town := range t[region] {
		towns = append(towns, town)
	}
	sort.Strings(towns)
	return towns
}
