package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/docentlabs/docent/pkg/corpus"
)

// Persisted index layout inside the target directory.
const (
	manifestFile  = "manifest.toml"
	fragmentsFile = "fragments.json"
	vectorsFile   = "vectors.bin"

	formatVersion = 1
)

// manifest describes a persisted index. Loading without a matching,
// fully-specified manifest fails with ErrCorruptIndex.
type manifest struct {
	Version    int       `toml:"version"`
	Dimensions int       `toml:"dimensions"`
	Metric     string    `toml:"metric"`
	Fragments  int       `toml:"fragments"`
	BuiltAt    time.Time `toml:"built_at"`
}

// Persist writes the index to dir as a manifest, fragment records, and raw
// little-endian float32 vector data. The write goes through a temporary
// directory; the previous index is set aside before a single rename publishes
// the replacement, so the target path never holds a partial index and the old
// data survives until the new tree is in place.
func (idx *Index) Persist(dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating index parent dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, ".index-*")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	m := manifest{
		Version:    formatVersion,
		Dimensions: idx.dim,
		Metric:     string(idx.metric),
		Fragments:  len(idx.fragments),
		BuiltAt:    time.Now().UTC(),
	}
	mf, err := os.Create(filepath.Join(tmp, manifestFile))
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	if err := toml.NewEncoder(mf).Encode(m); err != nil {
		mf.Close()
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := mf.Close(); err != nil {
		return fmt.Errorf("closing manifest: %w", err)
	}

	recs, err := json.MarshalIndent(idx.fragments, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fragment records: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, fragmentsFile), recs, 0o644); err != nil {
		return fmt.Errorf("writing fragment records: %w", err)
	}

	buf := make([]byte, 0, len(idx.vectors)*idx.dim*4)
	for _, v := range idx.vectors {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	if err := os.WriteFile(filepath.Join(tmp, vectorsFile), buf, 0o644); err != nil {
		return fmt.Errorf("writing vector data: %w", err)
	}

	prev := dir + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("clearing set-aside index: %w", err)
	}
	if err := os.Rename(dir, prev); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("setting aside previous index: %w", err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("publishing index: %w", err)
	}
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("removing set-aside index: %w", err)
	}
	return nil
}

// Load reads an index persisted with Persist. The round trip is exact:
// vectors are restored bit-for-bit, so a loaded index returns identical
// search results to the one that was persisted.
func Load(dir string) (*Index, error) {
	var m manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, manifestFile), &m); err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %v", ErrCorruptIndex, err)
	}
	if m.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptIndex, m.Version)
	}
	if m.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: manifest does not specify dimensionality", ErrCorruptIndex)
	}
	metric := Metric(m.Metric)
	if metric != MetricCosine && metric != MetricDot {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrCorruptIndex, m.Metric)
	}

	recs, err := os.ReadFile(filepath.Join(dir, fragmentsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading fragment records: %v", ErrCorruptIndex, err)
	}
	var fragments []corpus.Fragment
	if err := json.Unmarshal(recs, &fragments); err != nil {
		return nil, fmt.Errorf("%w: decoding fragment records: %v", ErrCorruptIndex, err)
	}
	if len(fragments) != m.Fragments {
		return nil, fmt.Errorf("%w: manifest lists %d fragments, records hold %d", ErrCorruptIndex, m.Fragments, len(fragments))
	}

	raw, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading vector data: %v", ErrCorruptIndex, err)
	}
	want := len(fragments) * m.Dimensions * 4
	if len(raw) != want {
		return nil, fmt.Errorf("%w: vector data is %d bytes, expected %d", ErrCorruptIndex, len(raw), want)
	}

	embedded := make([]corpus.EmbeddedFragment, len(fragments))
	for i, frag := range fragments {
		vec := make([]float32, m.Dimensions)
		base := i * m.Dimensions * 4
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[base+j*4:]))
		}
		embedded[i] = corpus.EmbeddedFragment{Fragment: frag, Vector: vec}
	}

	idx, err := Build(embedded, metric)
	if err != nil {
		return nil, fmt.Errorf("%w: rebuilding index: %v", ErrCorruptIndex, err)
	}
	return idx, nil
}
