package index

import (
	"encoding/xml"
	"fmt"
	"os"
)

type diConfig struct {
	Preferences []struct {
		For  string `xml:"for,attr"`
		Type string `xml:"type,attr"`
	} `xml:"preference"`
}

// LoadPreferences reads the <preference for="..." type="..."/> entries of a
// di.xml file into ix.
func LoadPreferences(ix *Index, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg diConfig
	if err := xml.Unmarshal(content, &cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, pref := range cfg.Preferences {
		ix.AddPreference(pref.For, pref.Type)
	}
	return nil
}
