package formula

import (
	"testing"
)

func TestSettings_Validate(t *testing.T) {
	valid := Settings{OS: "Linux", Compiler: "gcc12", BuildType: "Release", Arch: "x86_64"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name string
		mod  func(s *Settings)
	}{
		{"missing os", func(s *Settings) { s.OS = "" }},
		{"missing compiler", func(s *Settings) { s.Compiler = "" }},
		{"bad build type", func(s *Settings) { s.BuildType = "Fast" }},
		{"separator in arch", func(s *Settings) { s.Arch = "x86/64" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mod(&s)
			if err := s.Validate(); err == nil {
				t.Errorf("Validate() of %+v succeeded, want error", s)
			}
		})
	}
}

func TestSettings_String(t *testing.T) {
	s := Settings{OS: "Linux", Compiler: "gcc12", BuildType: "Release", Arch: "x86_64"}
	if got, want := s.String(), "Linux-gcc12-Release-x86_64"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSettings_MultiConfig(t *testing.T) {
	if (Settings{Compiler: "gcc12"}).MultiConfig() {
		t.Error("gcc should be single-config")
	}
	if !(Settings{Compiler: "msvc193"}).MultiConfig() {
		t.Error("msvc should be multi-config")
	}
}

func TestSettings_Set(t *testing.T) {
	var s Settings
	for k, v := range map[string]string{"os": "Macos", "compiler": "apple-clang15", "build_type": "Debug", "arch": "armv8"} {
		if err := s.Set(k, v); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	want := Settings{OS: "Macos", Compiler: "apple-clang15", BuildType: "Debug", Arch: "armv8"}
	if s != want {
		t.Errorf("Settings = %+v, want %+v", s, want)
	}
	if err := s.Set("os.version", "14"); err == nil {
		t.Error("Set(os.version) should fail")
	}
}

func TestMatrix_Expand(t *testing.T) {
	base := Settings{OS: "Linux", Compiler: "gcc12", BuildType: "Release", Arch: "x86_64"}

	tests := []struct {
		name   string
		matrix Matrix
		want   []string
	}{
		{
			name:   "empty matrix",
			matrix: Matrix{},
			want:   []string{"Linux-gcc12-Release-x86_64"},
		},
		{
			name: "two keys",
			matrix: Matrix{
				"build_type": {"Debug", "Release"},
				"arch":       {"x86_64", "armv8"},
			},
			// sorted keys: arch, build_type
			want: []string{
				"Linux-gcc12-Debug-x86_64",
				"Linux-gcc12-Release-x86_64",
				"Linux-gcc12-Debug-armv8",
				"Linux-gcc12-Release-armv8",
			},
		},
		{
			name:   "empty values are skipped",
			matrix: Matrix{"os": nil, "compiler": {"clang17"}},
			want:   []string{"Linux-clang17-Release-x86_64"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.matrix.Expand(base)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expand() len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i, s := range got {
				if s.String() != tt.want[i] {
					t.Errorf("Expand()[%d] = %q, want %q", i, s, tt.want[i])
				}
			}
			if c := tt.matrix.Count(); c != len(tt.want) {
				t.Errorf("Count() = %d, want %d", c, len(tt.want))
			}
		})
	}

	if _, err := (Matrix{"libc": {"musl"}}).Expand(base); err == nil {
		t.Error("Expand() with unknown key should fail")
	}
}
