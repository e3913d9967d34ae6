package manager

import (
	"os"
	"path/filepath"
	"strings"

	"modelmgrd/internal/common/fsutil"
	"modelmgrd/pkg/types"
)

// localEntry resolves id against the catalog and rejects cloud models.
func (m *Manager) localEntry(id string) (types.CatalogEntry, error) {
	ent, ok := m.catalog.Resolve(id)
	if !ok {
		return types.CatalogEntry{}, ErrModelNotFound(id)
	}
	if ent.Cloud {
		return types.CatalogEntry{}, ErrCloudOnly(id)
	}
	return ent, nil
}

// installDir returns the absolute install directory for a model.
func (m *Manager) installDir(id string) string {
	return filepath.Join(m.modelsDir, m.catalog.InstallDirName(id))
}

// artifactScan reports whether the install directory holds complete
// artifacts and the bytes they occupy. In-flight .partial files are not
// artifacts and never count.
func artifactScan(dir string) (bool, int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, 0
	}
	present := false
	var total int64
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".partial") {
			continue
		}
		if e.IsDir() {
			sz, err := fsutil.DirSize(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			if sz > 0 {
				present = true
			}
			total += sz
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		present = true
		total += info.Size()
	}
	return present, total
}

// artifactPath picks the file handed to the runtime: the largest regular
// file in the install dir (model weights dominate). Falls back to the
// directory itself when nothing qualifies.
func (m *Manager) artifactPath(id string) string {
	dir := m.installDir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir
	}
	var best string
	var bestSize int64 = -1
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".partial") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			bestSize = info.Size()
			best = filepath.Join(dir, e.Name())
		}
	}
	if best == "" {
		return dir
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
