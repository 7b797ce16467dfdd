package registry

import (
	"context"
	"errors"
	"testing"
)

const registryTestPrefix = "registry:registry_test"

type okModule struct {
	name    string
	version string
}

func (m okModule) Process(context.Context, map[string]any, []map[string]any) (map[string]any, error) {
	return map[string]any{"handled_by": m.name}, nil
}

func (m okModule) Metadata() map[string]any {
	return map[string]any{"name": m.name, "version": m.version}
}

type okAgent struct{}

func (okAgent) HandleRequest(context.Context, string, map[string]any, []map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

type nilMetaModule struct{}

func (nilMetaModule) Process(context.Context, map[string]any, []map[string]any) (map[string]any, error) {
	return nil, nil
}

func (nilMetaModule) Metadata() map[string]any { return nil }

type contractlessHandler struct{}

func TestBuild_ValidHandlers(t *testing.T) {
	reg := Build(
		map[string]Handler{"agent": okAgent{}},
		map[string]Handler{"mod": okModule{name: "mod", version: "1.2.3"}},
		nil,
	)

	if reg.Len() != 2 {
		t.Fatalf("%s - Len() = %d, want 2", registryTestPrefix, reg.Len())
	}
	for _, name := range []string{"agent", "mod"} {
		h, ok := reg.Resolve(name)
		if !ok || h == nil {
			t.Errorf("%s - Resolve(%q) = (%v, %v), want valid handler", registryTestPrefix, name, h, ok)
		}
	}
}

func TestBuild_InvalidHandlersMarkedNil(t *testing.T) {
	tests := []struct {
		name    string
		handler Handler
	}{
		{"no contract", contractlessHandler{}},
		{"nil metadata", nilMetaModule{}},
		{"missing version", okModule{name: "m"}},
		{"bad semver", okModule{name: "m", version: "one.two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := Build(map[string]Handler{"h": tt.handler}, nil, nil)
			h, known := reg.Resolve("h")
			if !known {
				t.Fatalf("%s - invalid handler must stay registered", registryTestPrefix)
			}
			if h != nil {
				t.Errorf("%s - invalid handler must resolve to nil, got %T", registryTestPrefix, h)
			}
		})
	}
}

func TestBuild_DiscoveredShadowsBuiltin(t *testing.T) {
	replacement := okModule{name: "echo", version: "2.0.0"}
	reg := Build(
		map[string]Handler{"echo": okAgent{}},
		map[string]Handler{"echo": replacement},
		nil,
	)

	h, _ := reg.Resolve("echo")
	mod, ok := h.(Module)
	if !ok {
		t.Fatalf("%s - expected discovered module to win, got %T", registryTestPrefix, h)
	}
	if mod.Metadata()["version"] != "2.0.0" {
		t.Errorf("%s - wrong instance kept: %v", registryTestPrefix, mod.Metadata())
	}
}

func TestBuild_DiscoveryErrorsDoNotFail(t *testing.T) {
	reg := Build(
		map[string]Handler{"agent": okAgent{}},
		nil,
		[]error{errors.New("manifest entry broken")},
	)
	if reg.Len() != 1 {
		t.Errorf("%s - Len() = %d, want 1", registryTestPrefix, reg.Len())
	}
}

func TestResolve_Unknown(t *testing.T) {
	reg := Build(nil, nil, nil)
	if _, ok := reg.Resolve("ghost"); ok {
		t.Errorf("%s - Resolve(ghost) reported known", registryTestPrefix)
	}
}
