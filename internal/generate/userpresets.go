package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// UserPresetsFile is written at the source root. It includes the generated
// presets so that "cmake --preset" finds them.
const UserPresetsFile = "CMakeUserPresets.json"

const vendor = "xvcpkg"

type userPresetsFile struct {
	Version int                        `json:"version"`
	Vendor  map[string]json.RawMessage `json:"vendor"`
	Include []string                   `json:"include"`
}

// userPresets returns the user presets including in's generated presets,
// merged with the includes of a previously generated file. ok is false when
// a user presets file not written by xvcpkg already exists; it is left
// alone.
func userPresets(in Input) (path string, data []byte, ok bool, err error) {
	path = filepath.Join(in.Layout.SourceDir, UserPresetsFile)
	rel, err := filepath.Rel(in.Layout.SourceDir, filepath.Join(in.Layout.GeneratorsDir, PresetsFile))
	if err != nil {
		return "", nil, false, err
	}

	f := userPresetsFile{Version: 4, Vendor: map[string]json.RawMessage{vendor: json.RawMessage("{}")}}
	old, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", nil, false, err
	default:
		var prev userPresetsFile
		if err := json.Unmarshal(old, &prev); err != nil {
			return "", nil, false, fmt.Errorf("%s: %w", path, err)
		}
		if _, mine := prev.Vendor[vendor]; !mine {
			return path, nil, false, nil
		}
		f.Include = prev.Include
	}

	rel = filepath.ToSlash(rel)
	if !slices.Contains(f.Include, rel) {
		f.Include = append(f.Include, rel)
	}
	slices.Sort(f.Include)

	data, err = json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", nil, false, err
	}
	return path, append(data, '\n'), true, nil
}
