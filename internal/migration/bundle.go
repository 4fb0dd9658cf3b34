package migration

import (
	"archive/zip"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// ExportBundle writes one YAML file per generated artifact into a zip
// archive. Artifacts that already exist in NG, manifests and artifacts
// without a filename are left out. It returns the number of files written.
func ExportBundle(w io.Writer, artifacts []*models.Artifact) (int, error) {
	sorted := make([]*models.Artifact, len(artifacts))
	copy(sorted, artifacts)
	SortArtifacts(sorted)

	zw := zip.NewWriter(w)
	written := 0
	seen := make(map[string]bool)
	for _, a := range sorted {
		if a.Exists || a.Type == models.Manifest || a.Filename == "" || seen[a.Filename] {
			continue
		}
		seen[a.Filename] = true
		data, err := yaml.Marshal(a.Payload)
		if err != nil {
			return written, fmt.Errorf("rendering %s: %w", a.Filename, err)
		}
		f, err := zw.Create(a.Filename)
		if err != nil {
			return written, fmt.Errorf("adding %s: %w", a.Filename, err)
		}
		if _, err := f.Write(data); err != nil {
			return written, fmt.Errorf("writing %s: %w", a.Filename, err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("closing bundle: %w", err)
	}
	return written, nil
}
