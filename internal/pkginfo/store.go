package pkginfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/kontex-neuro/xvcpkg/formula"
	"github.com/kontex-neuro/xvcpkg/internal/lockedfile"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/module"
	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// Workspace directory layout:
//
//	workspaceDir/
//	  <escaped>/                      # module-level dir
//	    .cache.json                   # maps "version-settings" to a published Info
//	    .lock
//	  <escaped>@<version>-<settings>/ # package dir
//	    include/
//	    lib/
const (
	cacheFile = ".cache.json"
	lockFile  = ".lock"
)

type entry struct {
	Info        Info      `json:"info"`
	PublishTime time.Time `json:"publish_time"`
}

type cache struct {
	Cache map[string]*entry `json:"cache"`
}

func cacheKey(version string, settings formula.Settings) string {
	return version + "-" + settings.String()
}

// Store keeps published package infos in a workspace.
type Store struct {
	Dir string

	now func() time.Time
}

// NewStore returns a Store rooted at the workspace dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

func (s *Store) moduleDir(name string) (string, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, escaped), nil
}

func (s *Store) load(dir string) (*cache, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &cache{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, cacheFile), err)
	}
	return &c, nil
}

// Publish records info, replacing an earlier one for the same version and
// settings.
func (s *Store) Publish(info Info) error {
	dir, err := s.moduleDir(info.Name)
	if err != nil {
		return err
	}
	unlock, err := lockedfile.MutexAt(filepath.Join(dir, lockFile)).Lock()
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(dir)
	if err != nil {
		return err
	}
	if c.Cache == nil {
		c.Cache = make(map[string]*entry)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	c.Cache[cacheKey(info.Version, info.Settings)] = &entry{Info: info, PublishTime: now().UTC()}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}

// Lookup returns the info published for name at version under settings.
func (s *Store) Lookup(name, version string, settings formula.Settings) (Info, bool, error) {
	dir, err := s.moduleDir(name)
	if err != nil {
		return Info{}, false, err
	}
	c, err := s.load(dir)
	if err != nil {
		return Info{}, false, err
	}
	e, ok := c.Cache[cacheKey(version, settings)]
	if !ok {
		return Info{}, false, nil
	}
	return e.Info, true, nil
}

// List returns every info published for name, newest version first, then
// by settings.
func (s *Store) List(name string) ([]Info, error) {
	dir, err := s.moduleDir(name)
	if err != nil {
		return nil, err
	}
	c, err := s.load(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(c.Cache))
	for _, e := range c.Cache {
		out = append(out, e.Info)
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := versions.Compare(b.Version, a.Version); c != 0 {
			return c
		}
		if a.Settings.String() < b.Settings.String() {
			return -1
		}
		if a.Settings.String() > b.Settings.String() {
			return 1
		}
		return 0
	})
	return out, nil
}
