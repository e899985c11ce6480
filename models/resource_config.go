package models

// EmergencyContact is a hotline shown to every user.
type EmergencyContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Remedy is a locally available remedy the advice generator may recommend.
type Remedy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResourceConfig is the admin-editable global record of contacts and remedies.
type ResourceConfig struct {
	EmergencyContacts []EmergencyContact `json:"emergencyContacts"`
	HerbalRemedies    []Remedy           `json:"herbalRemedies"`
}

// Normalize replaces nil lists with empty ones.
func (c *ResourceConfig) Normalize() {
	if c.EmergencyContacts == nil {
		c.EmergencyContacts = []EmergencyContact{}
	}
	if c.HerbalRemedies == nil {
		c.HerbalRemedies = []Remedy{}
	}
}

// DefaultResourceConfig returns the record used on first run.
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		EmergencyContacts: []EmergencyContact{
			{Name: "National Dangerous Drugs Control Board", Number: "1984"},
			{Name: "Sumithrayo (Suicide Prevention)", Number: "011 269 6666"},
		},
		HerbalRemedies: []Remedy{
			{Name: "Samahan", Description: "Instant herbal tea for body aches and colds."},
			{Name: "Ginger Tea", Description: "Helps with nausea and digestion."},
			{Name: "Gotu Kola", Description: "Improves mental clarity and reduces anxiety."},
		},
	}
}
