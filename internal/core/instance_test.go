package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInstanceManager_CreateAndLoad(t *testing.T) {
	// Setup temp directory
	tmpDir := t.TempDir()

	// Create manager
	mgr := NewInstanceManager(tmpDir)

	// Create instance
	inst := &Instance{
		ID:      "test-1",
		Name:    "Test Instance",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify file exists
	configPath := filepath.Join(tmpDir, "instances", "test-1", "instance.toml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}

	// Load fresh
	mgr2 := NewInstanceManager(tmpDir)
	if err := mgr2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded, ok := mgr2.Get("test-1")
	if !ok {
		t.Fatal("Instance not found after reload")
	}

	if loaded.Name != "Test Instance" {
		t.Errorf("Name mismatch: got %q, want %q", loaded.Name, "Test Instance")
	}
	if loaded.Version != "1.21.4" {
		t.Errorf("Version mismatch: got %q, want %q", loaded.Version, "1.21.4")
	}
}

func TestInstanceManager_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Create instance
	inst := &Instance{
		ID:      "to-delete",
		Name:    "Delete Me",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verify it exists
	if _, ok := mgr.Get("to-delete"); !ok {
		t.Fatal("Instance should exist after creation")
	}

	// Delete it
	if err := mgr.Delete("to-delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Verify it's gone
	if _, ok := mgr.Get("to-delete"); ok {
		t.Error("Instance should not exist after deletion")
	}

	// Verify files are deleted
	instPath := filepath.Join(tmpDir, "instances", "to-delete")
	if _, err := os.Stat(instPath); !os.IsNotExist(err) {
		t.Error("Instance directory should be deleted")
	}
}

func TestInstanceManager_List(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Create multiple instances
	for i := 0; i < 3; i++ {
		inst := &Instance{
			ID:      "inst-" + string(rune('a'+i)),
			Name:    "Instance " + string(rune('A'+i)),
			Version: "1.21.4",
			Loader:  "vanilla",
		}
		if err := mgr.Create(inst); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list := mgr.List()
	if len(list) != 3 {
		t.Errorf("Expected 3 instances, got %d", len(list))
	}
}

func TestInstanceManager_UpdateLastPlayed(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{
		ID:      "play-test",
		Name:    "Play Test",
		Version: "1.21.4",
		Loader:  "vanilla",
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Update last played
	before := time.Now()
	if err := mgr.UpdateLastPlayed("play-test"); err != nil {
		t.Fatalf("UpdateLastPlayed failed: %v", err)
	}
	after := time.Now()

	// Verify update
	updated, _ := mgr.Get("play-test")
	if updated.LastPlayed.Before(before) || updated.LastPlayed.After(after) {
		t.Error("LastPlayed should be between before and after")
	}

	// Reload and verify persistence
	mgr2 := NewInstanceManager(tmpDir)
	mgr2.Load()
	reloaded, _ := mgr2.Get("play-test")
	if reloaded.LastPlayed.IsZero() {
		t.Error("LastPlayed should persist after reload")
	}
}

func TestInstanceManager_EmptyDir(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	// Loading from non-existent directory should succeed
	if err := mgr.Load(); err != nil {
		t.Fatalf("Load from empty dir failed: %v", err)
	}

	// Should have no instances
	if len(mgr.List()) != 0 {
		t.Error("Expected empty list from new directory")
	}
}

func TestInstance_Validate_VanillaMustNotSetLoaderVersion(t *testing.T) {
	inst := &Instance{ID: "x", Loader: LoaderVanilla, LoaderVer: "1.2.3"}
	if err := inst.Validate(); err == nil {
		t.Error("expected Validate to reject a vanilla instance with a loader_version set")
	}
}

func TestInstance_Validate_NonVanillaRequiresLoaderVersion(t *testing.T) {
	inst := &Instance{ID: "x", Loader: LoaderFabric}
	if err := inst.Validate(); err == nil {
		t.Error("expected Validate to reject a fabric instance with no loader_version")
	}
}

func TestInstance_Validate_Passes(t *testing.T) {
	vanilla := &Instance{ID: "a", Loader: LoaderVanilla}
	if err := vanilla.Validate(); err != nil {
		t.Errorf("vanilla instance with no loader_version should validate, got %v", err)
	}

	fabric := &Instance{ID: "b", Loader: LoaderFabric, LoaderVer: "0.15.0"}
	if err := fabric.Validate(); err != nil {
		t.Errorf("fabric instance with a loader_version should validate, got %v", err)
	}
}

func TestInstanceManager_Create_RejectsInvalidInstance(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	inst := &Instance{ID: "bad", Name: "Bad", Version: "1.21.4", Loader: LoaderFabric}
	if err := mgr.Create(inst); err == nil {
		t.Error("expected Create to reject an instance failing Validate")
	}
	if _, ok := mgr.Get("bad"); ok {
		t.Error("invalid instance should not have been registered")
	}
}

// TestInstanceManager_RoundTrip_NewFields persists an instance exercising
// every field added beyond the teacher's json-era Instance shape (memory
// settings, extra JVM args, resolution, fullscreen, created-at) and
// reloads it through the TOML codec.
func TestInstanceManager_RoundTrip_NewFields(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewInstanceManager(tmpDir)

	created := time.Now().Truncate(time.Second)
	inst := &Instance{
		ID:           "full",
		Name:         "Full Fidelity",
		Version:      "1.20.1",
		Loader:       LoaderFabric,
		LoaderVer:    "0.15.0",
		MemoryMin:    "1G",
		MemoryMax:    "4G",
		ExtraJVMArgs: []string{"-XX:+UseG1GC", "-Dfile.encoding=UTF-8"},
		ResolutionW:  1920,
		ResolutionH:  1080,
		Fullscreen:   true,
		CreatedAt:    created,
	}

	if err := mgr.Create(inst); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mgr2 := NewInstanceManager(tmpDir)
	if err := mgr2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded, ok := mgr2.Get("full")
	if !ok {
		t.Fatal("instance not found after reload")
	}

	if loaded.MemoryMin != inst.MemoryMin || loaded.MemoryMax != inst.MemoryMax {
		t.Errorf("memory settings did not round-trip: got min=%q max=%q", loaded.MemoryMin, loaded.MemoryMax)
	}
	if len(loaded.ExtraJVMArgs) != 2 || loaded.ExtraJVMArgs[0] != "-XX:+UseG1GC" {
		t.Errorf("extra jvm args did not round-trip: %v", loaded.ExtraJVMArgs)
	}
	if loaded.ResolutionW != 1920 || loaded.ResolutionH != 1080 {
		t.Errorf("resolution did not round-trip: %dx%d", loaded.ResolutionW, loaded.ResolutionH)
	}
	if !loaded.Fullscreen {
		t.Error("fullscreen did not round-trip")
	}
	if !loaded.CreatedAt.Equal(created) {
		t.Errorf("created_at did not round-trip: got %v, want %v", loaded.CreatedAt, created)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("reloaded instance should still validate: %v", err)
	}
}
