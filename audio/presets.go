package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"12-tet":       {PropDivisions: 12},
	"quarter-tone": {PropDivisions: 24},
	"19-edo":       {PropDivisions: 19},
	"22-edo":       {PropDivisions: 22},
	"31-edo":       {PropDivisions: 31},
	"41-edo":       {PropDivisions: 41},
	"53-edo":       {PropDivisions: 53},
	"5-edo":        {PropDivisions: 5},
	"7-edo":        {PropDivisions: 7},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Presets returns the names of all presets in sorted order.
func Presets() []string {
	var names []string
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
