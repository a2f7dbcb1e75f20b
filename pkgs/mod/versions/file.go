package versions

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

// Dependency is one resolved entry of a lockfile.
type Dependency struct {
	ModuleID string `json:"id"`
	Version  string `json:"version"`
	Range    string `json:"range,omitempty"`
}

// Versions is the versions.json lockfile recording the dependency versions a
// package was resolved against. Host dependencies and build tools are kept
// apart because they are resolved independently.
type Versions struct {
	ModuleID          string                `json:"id"`
	Version           string                `json:"version,omitempty"`
	Dependencies      map[string]Dependency `json:"deps"`
	BuildDependencies map[string]Dependency `json:"build_deps,omitempty"`
}

// Parse decodes a lockfile. When data is nil the file is read from disk.
func Parse(file string, data []byte) (*Versions, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewBuffer(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var v Versions

	if err := json.NewDecoder(reader).Decode(&v); err != nil {
		return nil, err
	}

	return &v, nil
}

// Marshal encodes v. The output is stable for equal values: encoding/json
// writes map keys in sorted order.
func (v *Versions) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
