package bootstrap

// Manifest lists the dynamically discovered modules the gateway should load.
type Manifest struct {
	Name        string                    `json:"name"`
	Version     string                    `json:"version"`
	Description string                    `json:"description,omitempty"`
	Modules     map[string]ManifestModule `json:"modules"`
}

// ManifestModule configures one discoverable module.
type ManifestModule struct {
	Enabled     bool   `json:"enabled"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}
