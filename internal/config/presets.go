package config

import "slices"

// Preset is a named pair of form-type allow-list and keyword list.
type Preset struct {
	Name        string
	Description string
	FormTypes   []string
	Keywords    []string
}

// DefaultPreset names the preset used when none is configured.
const DefaultPreset = "scraper"

// scraperKeywords are the financing phrases of the default preset.
var scraperKeywords = []string{
	"private placement",
	"securities purchase agreement",
	"entered into agreement",
	"filed a shelf registration",
	"acquired beneficial ownership",
	"reverse stock split",
	"PIPE financing",
	"at-the-market-offering",
	"public offering",
	"debt financing",
}

// Presets holds the built-in filter presets keyed by name.
var Presets = map[string]Preset{
	"scraper": {
		Name:        "scraper",
		Description: "current-event, ownership and proxy forms with financing keywords",
		FormTypes:   []string{"8-K", "4", "13D", "13G", "DEF 14A"},
		Keywords:    scraperKeywords,
	},
	// legacy widens the form allow-list to registration statements. It
	// carries the same keywords; extra phrases belong in filter.keywords.
	"legacy": {
		Name:        "legacy",
		Description: "scraper preset plus S-1 and S-3 registration statements",
		FormTypes:   []string{"8-K", "4", "13D", "13G", "DEF 14A", "S-1", "S-3"},
		Keywords:    scraperKeywords,
	},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EffectiveFormTypes returns the form-type allow-list: the explicit list
// when set, otherwise the preset's.
func (f Filter) EffectiveFormTypes() []string {
	if len(f.FormTypes) > 0 {
		return f.FormTypes
	}
	return f.preset().FormTypes
}

// EffectiveKeywords returns the explicit keyword list when set, otherwise
// the preset's.
func (f Filter) EffectiveKeywords() []string {
	if len(f.Keywords) > 0 {
		return f.Keywords
	}
	return f.preset().Keywords
}

func (f Filter) preset() Preset {
	if p, ok := Presets[f.Preset]; ok {
		return p
	}
	return Presets[DefaultPreset]
}
