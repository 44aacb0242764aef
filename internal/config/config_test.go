package config

import (
	"strings"
	"testing"
)

const sampleManifest = `
libraries:
  - name: core
    sources: [core.d.ts, extras.d.ts]
  - name: app
    sources: [app.d.ts]
    dependencies: [core]
    preferredCycleTargets: [app.State]
normalize: aliases
expansionCap: 100
`

func TestParseManifest(t *testing.T) {
	p, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Libraries) != 2 {
		t.Fatalf("libraries = %d, want 2", len(p.Libraries))
	}
	app, ok := p.LibraryByName("app")
	if !ok || len(app.Dependencies) != 1 || app.Dependencies[0] != "core" {
		t.Errorf("app library = %+v", app)
	}
	if p.ExpansionCap != 100 || p.Normalize != NormalizeAliases {
		t.Errorf("options = cap %d normalize %q", p.ExpansionCap, p.Normalize)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "no libraries",
			manifest: `libraries: []`,
			wantErr:  "no libraries",
		},
		{
			name: "duplicate names",
			manifest: `
libraries:
  - {name: a, sources: [a.d.ts]}
  - {name: a, sources: [b.d.ts]}`,
			wantErr: "duplicate",
		},
		{
			name: "self dependency",
			manifest: `
libraries:
  - {name: a, sources: [a.d.ts], dependencies: [a]}`,
			wantErr: "depends on itself",
		},
		{
			name: "missing sources",
			manifest: `
libraries:
  - {name: a, sources: []}`,
			wantErr: "no sources",
		},
		{
			name: "bad normalize mode",
			manifest: `
normalize: sideways
libraries:
  - {name: a, sources: [a.d.ts]}`,
			wantErr: "normalize",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.manifest))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
