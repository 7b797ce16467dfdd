// Package bootstrap loads the module manifest and resolves it against the
// registered module factories. Discovery never fails the process: problems
// come back as an error list the caller logs as warnings.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/bridge-gateway/pkg/registry"
)

const logPrefix = "bootstrap:loader"

// LoadManifest loads the module manifest from file paths or environment.
// It tries paths in order: first any paths passed in, then
// GATEWAY_MODULE_MANIFEST, then defaults. A missing or unparseable file falls
// through to the next candidate; when nothing loads, the embedded default
// manifest is used.
func LoadManifest(paths ...string) *Manifest {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("GATEWAY_MODULE_MANIFEST"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/modules.json", "modules.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse manifest %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded module manifest from %s", logPrefix, p))
		return &m
	}

	slog.Info(fmt.Sprintf("%s - Using default module manifest", logPrefix))
	return DefaultManifest()
}

// DefaultManifest returns the embedded fallback manifest enabling the bundled
// example modules.
func DefaultManifest() *Manifest {
	return &Manifest{
		Name:        "bridge-gateway-modules",
		Version:     "1.0.0",
		Description: "Default module manifest",
		Modules: map[string]ManifestModule{
			"example_math": {
				Enabled:     true,
				Version:     "1.0.0",
				Description: "Mathematical operations module",
			},
			"example_validation": {
				Enabled:     true,
				Version:     "1.0.0",
				Description: "Data validation module",
			},
			"sample_text": {
				Enabled:     true,
				Version:     "1.0.0",
				Description: "Text statistics module",
			},
		},
	}
}

// Factory constructs a module instance.
type Factory func() registry.Handler

// Discover resolves manifest entries against the factory table and returns
// the instantiated modules plus a list of discovery problems. Disabled
// entries are skipped silently; an entry without a factory, or whose declared
// version disagrees with the instance's metadata, is reported and not
// registered.
func Discover(manifest *Manifest, factories map[string]Factory) (map[string]registry.Handler, []error) {
	instances := make(map[string]registry.Handler)
	var errs []error

	if manifest == nil {
		return instances, errs
	}

	for name, entry := range manifest.Modules {
		if !entry.Enabled {
			continue
		}

		factory, ok := factories[name]
		if !ok {
			errs = append(errs, fmt.Errorf("no factory registered for module %q", name))
			continue
		}

		instance := factory()
		if entry.Version != "" {
			if mod, ok := instance.(registry.Module); ok {
				meta := mod.Metadata()
				if v, _ := meta["version"].(string); v != "" && v != entry.Version {
					errs = append(errs, fmt.Errorf("module %q version mismatch: manifest %s, metadata %s", name, entry.Version, v))
					continue
				}
			}
		}

		instances[name] = instance
	}

	return instances, errs
}
