// Package manifest persists a summary of an extraction run next to its
// shards.
package manifest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/itsmostafa/wikichunk/internal/atomicfile"
	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/shard"
	"github.com/pkg/errors"
)

// FileName of the manifest inside the output directory.
const FileName = "manifest.json"

// Status of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Counters accumulate over a run.
type Counters struct {
	Blocks       int `json:"blocks"`
	BlocksFailed int `json:"blocks_failed"`
	Articles     int `json:"articles"`
	Redirects    int `json:"redirects"`
	Filtered     int `json:"filtered"`
	Empty        int `json:"empty"`
	Chunks       int `json:"chunks"`
	Shards       int `json:"shards"`
	Batches      int `json:"batches"`
}

// Add adds every counter of o to c.
func (c *Counters) Add(o Counters) {
	c.Blocks += o.Blocks
	c.BlocksFailed += o.BlocksFailed
	c.Articles += o.Articles
	c.Redirects += o.Redirects
	c.Filtered += o.Filtered
	c.Empty += o.Empty
	c.Chunks += o.Chunks
	c.Shards += o.Shards
	c.Batches += o.Batches
}

// Settings records the configuration a run used.
type Settings struct {
	Workers            int      `json:"workers"`
	BlocksPerPartition int      `json:"blocks_per_partition"`
	MaxWords           int      `json:"max_words"`
	RedirectMarkers    []string `json:"redirect_markers"`
	Namespaces         []int    `json:"namespaces,omitempty"`
	FilterScript       string   `json:"filter_script,omitempty"`
}

// Manifest describes one extraction run.
type Manifest struct {
	RunID      string       `json:"run_id"`
	Status     Status       `json:"status"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Archive    string       `json:"archive"`
	Index      string       `json:"index,omitempty"`
	Cache      string       `json:"cache,omitempty"`
	Offsets    int          `json:"offsets"`
	Settings   Settings     `json:"settings"`
	Counters   Counters     `json:"counters"`
	Shards     []shard.Info `json:"shards"`
}

// New starts a manifest for a run of cfg with a fresh run id.
func New(cfg config.Config) *Manifest {
	now := time.Now()
	return &Manifest{
		RunID:     uuid.New().String(),
		Status:    StatusRunning,
		StartedAt: now,
		UpdatedAt: now,
		Archive:   cfg.ArchivePath,
		Index:     cfg.IndexPath,
		Cache:     cfg.CachePath,
		Settings: Settings{
			Workers:            cfg.Workers,
			BlocksPerPartition: cfg.BlocksPerPartition,
			MaxWords:           cfg.MaxWords,
			RedirectMarkers:    cfg.RedirectMarkers,
			Namespaces:         cfg.Namespaces,
			FilterScript:       cfg.FilterScript,
		},
		Shards: []shard.Info{},
	}
}

// AddShards records written shards, keeping the list ordered by first id.
func (m *Manifest) AddShards(infos ...shard.Info) {
	m.Shards = append(m.Shards, infos...)
	sort.Slice(m.Shards, func(i, j int) bool {
		return m.Shards[i].FirstID < m.Shards[j].FirstID
	})
}

// Finish marks the run completed, or failed when err is non-nil.
func (m *Manifest) Finish(err error) {
	now := time.Now()
	m.FinishedAt = &now
	if err != nil {
		m.Status = StatusFailed
		m.Error = err.Error()
		return
	}
	m.Status = StatusCompleted
}

// Path returns the manifest location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Save writes m to dir, replacing any previous manifest atomically.
func Save(dir string, m *Manifest) error {
	m.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}

	err = atomicfile.WriteFile(Path(dir), 0644, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
	return errors.Wrap(err, "failed to write manifest")
}

// Load reads the manifest stored in dir.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	return &m, nil
}
