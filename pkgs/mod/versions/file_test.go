package versions

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse_WithData(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Versions
		wantErr bool
	}{
		{
			name: "basic version file",
			data: `{
				"id": "libxvc",
				"deps": {
					"dep1": {"id": "boost", "version": "1.81.0"},
					"dep2": {"id": "fmt", "version": "10.2.1"}
				}
			}`,
			want: &Versions{
				ModuleID: "libxvc",
				Dependencies: map[string]Dependency{
					"dep1": {ModuleID: "boost", Version: "1.81.0"},
					"dep2": {ModuleID: "fmt", Version: "10.2.1"},
				},
			},
			wantErr: false,
		},
		{
			name: "empty deps",
			data: `{"id": "libxvc", "deps": {}}`,
			want: &Versions{
				ModuleID:     "libxvc",
				Dependencies: map[string]Dependency{},
			},
			wantErr: false,
		},
		{
			name: "no deps field",
			data: `{"id": "libxvc"}`,
			want: &Versions{
				ModuleID:     "libxvc",
				Dependencies: nil,
			},
			wantErr: false,
		},
		{
			name:    "invalid json",
			data:    `{"id": invalid}`,
			want:    nil,
			wantErr: true,
		},
		{
			name:    "empty json",
			data:    `{}`,
			want:    &Versions{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse("", []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.ModuleID != tt.want.ModuleID {
				t.Errorf("Parse() ModuleID = %v, want %v", got.ModuleID, tt.want.ModuleID)
			}
			if len(got.Dependencies) != len(tt.want.Dependencies) {
				t.Errorf("Parse() Dependencies len = %v, want %v", len(got.Dependencies), len(tt.want.Dependencies))
				return
			}
			for k, v := range tt.want.Dependencies {
				if gotDep, ok := got.Dependencies[k]; !ok {
					t.Errorf("Parse() missing dependency %q", k)
				} else if gotDep != v {
					t.Errorf("Parse() dependency %q = %v, want %v", k, gotDep, v)
				}
			}
		})
	}
}

func TestParse_WithFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		content := `{"id": "libxvc", "deps": {"boost": {"id": "boost", "version": "1.81.0"}}}`
		file := filepath.Join(tmpDir, "versions.json")
		if err := os.WriteFile(file, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		got, err := Parse(file, nil)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got.ModuleID != "libxvc" {
			t.Errorf("Parse() ModuleID = %v, want %v", got.ModuleID, "libxvc")
		}
		if len(got.Dependencies) != 1 {
			t.Errorf("Parse() Dependencies len = %v, want 1", len(got.Dependencies))
		}
		if dep := got.Dependencies["boost"]; dep.ModuleID != "boost" || dep.Version != "1.81.0" {
			t.Errorf("Parse() dependency boost = %v, want {boost 1.81.0}", dep)
		}
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := Parse(filepath.Join(tmpDir, "nonexistent.json"), nil)
		if err == nil {
			t.Error("Parse() expected error for nonexistent file")
		}
	})

	t.Run("invalid json file", func(t *testing.T) {
		file := filepath.Join(tmpDir, "invalid.json")
		if err := os.WriteFile(file, []byte(`{invalid`), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := Parse(file, nil)
		if err == nil {
			t.Error("Parse() expected error for invalid json")
		}
	})
}

func TestParse_DataTakesPrecedence(t *testing.T) {
	tmpDir := t.TempDir()

	fileContent := `{"id": "from-file"}`
	file := filepath.Join(tmpDir, "versions.json")
	if err := os.WriteFile(file, []byte(fileContent), 0644); err != nil {
		t.Fatal(err)
	}

	dataContent := `{"id": "from-data"}`
	got, err := Parse(file, []byte(dataContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// data should take precedence over file
	if got.ModuleID != "from-data" {
		t.Errorf("Parse() ModuleID = %v, want from-data (data should take precedence)", got.ModuleID)
	}
}

func TestVersions_Marshal(t *testing.T) {
	v := &Versions{
		ModuleID: "libxvc",
		Version:  "0.0.3",
		Dependencies: map[string]Dependency{
			"spdlog": {ModuleID: "spdlog", Version: "1.13.0", Range: "1.13.0"},
			"fmt":    {ModuleID: "fmt", Version: "10.2.1", Range: "10.2.1"},
		},
		BuildDependencies: map[string]Dependency{
			"cmake": {ModuleID: "cmake", Version: "3.29.3", Range: ">=3.25.0 <3.30.0"},
		},
	}
	first, err := v.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	second, err := v.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Marshal() is not stable:\n%s\n%s", first, second)
	}

	got, err := Parse("", first)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.BuildDependencies["cmake"].Range != ">=3.25.0 <3.30.0" {
		t.Errorf("build dep cmake = %+v", got.BuildDependencies["cmake"])
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("Dependencies len = %d, want 2", len(got.Dependencies))
	}
}
