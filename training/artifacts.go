package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sartorproj/autoscenario/arima"
	"github.com/sartorproj/autoscenario/gbt"
	"github.com/sartorproj/autoscenario/linreg"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/seasonal"
)

// ManifestFile is the name of the bundle manifest inside an artifact directory.
const ManifestFile = "manifest.json"

// Manifest lists the artifacts written for a bundle.
type Manifest struct {
	CreatedAt time.Time      `json:"created_at"`
	Features  []string       `json:"features"`
	LastRow   panel.Features `json:"last_row"`
	Artifacts []string       `json:"artifacts"`
}

type artifact struct {
	Metadata Metadata        `json:"metadata"`
	Model    json.RawMessage `json:"model"`
}

// ArtifactName returns the file name of the artifact for kind and target.
func ArtifactName(kind Kind, target Target) string {
	return fmt.Sprintf("%s_%s.json", kind, target)
}

// SaveArtifacts writes one JSON artifact per model plus the manifest into
// dir. A failure to write one artifact does not stop the others; all
// failures are returned joined.
func SaveArtifacts(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var errs []error
	m := Manifest{
		CreatedAt: time.Now().UTC(),
		Features:  b.Features,
		LastRow:   b.LastRow,
	}
	save := func(meta Metadata, model any) {
		name := ArtifactName(meta.Kind, meta.Target)
		if err := writeArtifact(filepath.Join(dir, name), meta, model); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		m.Artifacts = append(m.Artifacts, name)
	}

	for _, t := range Targets {
		if lm := b.Linear[t]; lm != nil {
			save(lm.Meta, lm.Model)
		}
		if bm := b.Boosted[t]; bm != nil {
			save(bm.Meta, bm.Model)
		}
	}
	if b.Seasonal != nil {
		save(b.Seasonal.Meta, b.Seasonal.Model)
	}
	if b.Autoregressive != nil {
		snap, err := b.Autoregressive.Model.Snapshot()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ArtifactName(Autoregressive, Production), err))
		} else {
			save(b.Autoregressive.Meta, snap)
		}
	}

	if err := writeJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", ManifestFile, err))
	}
	return errors.Join(errs...)
}

// LoadArtifacts rebuilds a bundle from dir. Artifacts that fail to load are
// logged and skipped; the returned error joins every failure. The bundle is
// nil only when the manifest itself cannot be read.
func LoadArtifacts(dir string, log *zap.Logger) (*Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	b := &Bundle{
		Features: m.Features,
		Linear:   make(map[Target]*LinearModel),
		Boosted:  make(map[Target]*BoostedModel),
		LastRow:  m.LastRow,
	}
	var errs []error
	for _, name := range m.Artifacts {
		if err := loadArtifact(filepath.Join(dir, name), b); err != nil {
			log.Warn("failed to load model artifact", zap.String("artifact", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return b, errors.Join(errs...)
}

func loadArtifact(path string, b *Bundle) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	switch a.Metadata.Kind {
	case Linear:
		var m linreg.Model
		if err := json.Unmarshal(a.Model, &m); err != nil {
			return err
		}
		if !m.Fitted {
			return linreg.ErrNotFitted
		}
		b.Linear[a.Metadata.Target] = &LinearModel{Model: &m, Meta: a.Metadata}
	case Boosted:
		var m gbt.Model
		if err := json.Unmarshal(a.Model, &m); err != nil {
			return err
		}
		if len(m.Trees) == 0 {
			return gbt.ErrNotFitted
		}
		b.Boosted[a.Metadata.Target] = &BoostedModel{Model: &m, Meta: a.Metadata}
	case Seasonal:
		var m seasonal.Model
		if err := json.Unmarshal(a.Model, &m); err != nil {
			return err
		}
		if !m.Fitted() {
			return seasonal.ErrNotFitted
		}
		b.Seasonal = &SeasonalModel{Model: &m, Meta: a.Metadata}
	case Autoregressive:
		var s arima.Snapshot
		if err := json.Unmarshal(a.Model, &s); err != nil {
			return err
		}
		m, err := arima.FromSnapshot(&s)
		if err != nil {
			return err
		}
		b.Autoregressive = &ARModel{Model: m, Meta: a.Metadata}
	default:
		return fmt.Errorf("unknown model kind %q", a.Metadata.Kind)
	}
	return nil
}

func writeArtifact(path string, meta Metadata, model any) error {
	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return writeJSON(path, artifact{Metadata: meta, Model: raw})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
