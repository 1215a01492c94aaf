package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("mvn", "fs", "run-001")

	c.IncArtifactInstalled()
	c.IncArtifactInstalled()
	c.IncArtifactInstalled()
	c.IncArtifactSkipped()
	c.IncInstallFailure()
	c.IncSampleStaged()
	c.IncSampleStaged()
	c.IncFileCopied()
	c.IncDirectoryCreated()
	c.IncEntrySkipped()
	c.IncBuildStarted()
	c.IncBuildStarted()
	c.IncBuildPassed()
	c.IncBuildFailed()
	c.IncLaunchFailure()
	c.IncLogArchived()
	c.IncArchiveFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"ArtifactsInstalled", s.ArtifactsInstalled, 3},
		{"ArtifactsSkipped", s.ArtifactsSkipped, 1},
		{"InstallFailures", s.InstallFailures, 1},
		{"SamplesStaged", s.SamplesStaged, 2},
		{"FilesCopied", s.FilesCopied, 1},
		{"DirectoriesCreated", s.DirectoriesCreated, 1},
		{"EntriesSkipped", s.EntriesSkipped, 1},
		{"BuildsStarted", s.BuildsStarted, 2},
		{"BuildsPassed", s.BuildsPassed, 1},
		{"BuildsFailed", s.BuildsFailed, 1},
		{"LaunchFailures", s.LaunchFailures, 1},
		{"LogsArchived", s.LogsArchived, 1},
		{"ArchiveFailures", s.ArchiveFailures, 1},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %d, want %d", ch.name, ch.got, ch.want)
		}
	}
}

func TestCollector_Dimensions(t *testing.T) {
	s := NewCollector("./mvnw", "s3", "run-xyz").Snapshot()

	if s.Executable != "./mvnw" {
		t.Errorf("Executable = %q, want ./mvnw", s.Executable)
	}
	if s.ArchiveBackend != "s3" {
		t.Errorf("ArchiveBackend = %q, want s3", s.ArchiveBackend)
	}
	if s.RunID != "run-xyz" {
		t.Errorf("RunID = %q, want run-xyz", s.RunID)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	c.IncArtifactInstalled()
	c.IncSampleStaged()
	c.IncBuildFailed()

	if s := c.Snapshot(); s != (Snapshot{}) {
		t.Errorf("nil collector snapshot = %+v, want zero", s)
	}
}

func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector("mvn", "", "run-1")
	c.IncBuildPassed()

	before := c.Snapshot()
	c.IncBuildPassed()

	if before.BuildsPassed != 1 {
		t.Errorf("snapshot mutated: BuildsPassed = %d, want 1", before.BuildsPassed)
	}
	if c.Snapshot().BuildsPassed != 2 {
		t.Errorf("BuildsPassed = %d, want 2", c.Snapshot().BuildsPassed)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("mvn", "", "run-1")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncFileCopied()
		}()
	}
	wg.Wait()

	if got := c.Snapshot().FilesCopied; got != 50 {
		t.Errorf("FilesCopied = %d, want 50", got)
	}
}
