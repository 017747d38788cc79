package manifest

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/itsmostafa/wikichunk/internal/config"
	"github.com/itsmostafa/wikichunk/internal/shard"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ArchivePath = "dump.xml.bz2"
	cfg.IndexPath = "dump-index.txt.bz2"
	cfg.OutputDir = "out"
	cfg.Workers = 4
	return cfg.WithDefaultCache()
}

func TestNew(t *testing.T) {
	m := New(testConfig())

	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", m.RunID, err)
	}
	if m.Status != StatusRunning {
		t.Errorf("Status = %q, want running", m.Status)
	}
	if m.Cache != "dump-index.txt.offsets" {
		t.Errorf("Cache = %q", m.Cache)
	}
	if m.Settings.Workers != 4 || m.Settings.MaxWords != 350 {
		t.Errorf("unexpected settings %+v", m.Settings)
	}
	if New(testConfig()).RunID == m.RunID {
		t.Error("expected distinct run ids")
	}
}

func TestCountersAdd(t *testing.T) {
	c := Counters{Blocks: 1, Chunks: 5}
	c.Add(Counters{Blocks: 2, BlocksFailed: 1, Articles: 7, Redirects: 2, Filtered: 1, Empty: 1, Chunks: 3, Shards: 1, Batches: 1})

	want := Counters{Blocks: 3, BlocksFailed: 1, Articles: 7, Redirects: 2, Filtered: 1, Empty: 1, Chunks: 8, Shards: 1, Batches: 1}
	if c != want {
		t.Errorf("Add() = %+v, want %+v", c, want)
	}
}

func TestAddShardsSorted(t *testing.T) {
	m := New(testConfig())
	m.AddShards(shard.Info{FirstID: 30}, shard.Info{FirstID: 10})
	m.AddShards(shard.Info{FirstID: 20})

	for i, want := range []int32{10, 20, 30} {
		if m.Shards[i].FirstID != want {
			t.Errorf("shard %d first id = %d, want %d", i, m.Shards[i].FirstID, want)
		}
	}
}

func TestFinish(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		m := New(testConfig())
		m.Finish(nil)
		if m.Status != StatusCompleted || m.FinishedAt == nil || m.Error != "" {
			t.Errorf("unexpected manifest %+v", m)
		}
	})

	t.Run("failed", func(t *testing.T) {
		m := New(testConfig())
		m.Finish(errors.New("disk full"))
		if m.Status != StatusFailed || m.Error != "disk full" {
			t.Errorf("unexpected manifest %+v", m)
		}
	})
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := New(testConfig())
	m.Offsets = 42
	m.Counters = Counters{Blocks: 10, Chunks: 99}
	m.AddShards(shard.Info{Path: "out/00000001.parquet", FirstID: 1, Rows: 99, Bytes: 1024})

	if err := Save(dir, m); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.RunID != m.RunID || got.Offsets != 42 || got.Counters != m.Counters {
		t.Errorf("loaded manifest differs: %+v", got)
	}
	if len(got.Shards) != 1 || got.Shards[0] != m.Shards[0] {
		t.Errorf("loaded shards differ: %+v", got.Shards)
	}

	// Saving again replaces the file.
	m.Counters.Blocks = 11
	if err := Save(dir, m); err != nil {
		t.Fatal(err)
	}
	if got, _ := Load(dir); got.Counters.Blocks != 11 {
		t.Errorf("expected updated manifest, got blocks=%d", got.Counters.Blocks)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing manifest")
	}
}
