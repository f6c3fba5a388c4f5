package passenger

// Preset is a named what-if scenario offered as a quick pick
type Preset struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Profile Profile `json:"values"`
}

// Presets lists the quick-pick scenarios in display order
var Presets = []Preset{
	{
		Key:     "woman_path",
		Label:   "Women's path (high survival)",
		Profile: Profile{Sex: Female, Pclass: SecondClass, Age: 30, Fare: 20.0},
	},
	{
		Key:     "man_path",
		Label:   "Men's path (low survival)",
		Profile: Profile{Sex: Male, Pclass: ThirdClass, Age: 30, Fare: 13.0},
	},
	{
		Key:     "first_class_child",
		Label:   "1st class child (best odds)",
		Profile: Profile{Sex: Female, Pclass: FirstClass, Age: 5, Fare: 84.0},
	},
	{
		Key:     "third_class_male",
		Label:   "3rd class male (worst odds)",
		Profile: Profile{Sex: Male, Pclass: ThirdClass, Age: 40, Fare: 8.0},
	},
}

// LookupPreset finds a preset by key
func LookupPreset(key string) (Preset, bool) {
	for _, p := range Presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}
