// Package core contains business logic independent of the UI.
// This is the heart of the application - all game-related logic lives here.
package core

import (
	"os"
	"path/filepath"
	"time"

	"github.com/glauncher/glauncher/internal/glerr"
	"github.com/pelletier/go-toml/v2"
)

// Instance represents a Minecraft instance
type Instance struct {
	ID        string     `toml:"id"`
	Name      string     `toml:"name"`
	Version   string     `toml:"mc_version"` // Minecraft version (e.g., "1.21.4")
	Loader    LoaderType `toml:"loader"`
	LoaderVer string     `toml:"loader_version,omitempty"`

	MemoryMin    string   `toml:"memory_min,omitempty"`
	MemoryMax    string   `toml:"memory_max,omitempty"`
	ExtraJVMArgs []string `toml:"extra_jvm_args,omitempty"`

	ResolutionW int  `toml:"resolution_w,omitempty"`
	ResolutionH int  `toml:"resolution_h,omitempty"`
	Fullscreen  bool `toml:"fullscreen,omitempty"`

	JavaPath string `toml:"java_path,omitempty"`

	Path       string    `toml:"-"` // derived, not persisted
	LastPlayed time.Time `toml:"last_played,omitempty"`
	PlayTime   int64     `toml:"play_time,omitempty"` // seconds

	// Caching fields for repeat-launch fast paths
	IsFullyDownloaded bool      `toml:"is_fully_downloaded,omitempty"`
	CachedAt          time.Time `toml:"cached_at,omitempty"`

	CreatedAt time.Time `toml:"created_at"`
}

// Validate enforces the loader/loader-version invariant: Vanilla instances
// carry no loader version, and every other loader requires one.
func (inst *Instance) Validate() error {
	if inst.Loader == LoaderVanilla && inst.LoaderVer != "" {
		return &glerr.ParseError{What: "vanilla instance must not set loader_version"}
	}
	if inst.Loader != LoaderVanilla && inst.LoaderVer == "" {
		return &glerr.ParseError{What: "loader " + string(inst.Loader) + " requires loader_version"}
	}
	return nil
}

// InstanceManager handles instance CRUD operations
type InstanceManager struct {
	basePath  string
	instances map[string]*Instance
}

// NewInstanceManager creates a new instance manager
func NewInstanceManager(basePath string) *InstanceManager {
	return &InstanceManager{
		basePath:  basePath,
		instances: make(map[string]*Instance),
	}
}

// Load reads all instances from disk
func (im *InstanceManager) Load() error {
	instancesPath := filepath.Join(im.basePath, "instances")

	entries, err := os.ReadDir(instancesPath)
	if os.IsNotExist(err) {
		// No instances directory yet, that's fine
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		configPath := filepath.Join(instancesPath, entry.Name(), "instance.toml")
		data, err := os.ReadFile(configPath)
		if err != nil {
			continue // Skip instances without config
		}

		var inst Instance
		if err := toml.Unmarshal(data, &inst); err != nil {
			continue // Skip malformed configs
		}
		inst.Path = filepath.Join(instancesPath, entry.Name())

		im.instances[inst.ID] = &inst
	}

	return nil
}

// List returns all instances
func (im *InstanceManager) List() []*Instance {
	result := make([]*Instance, 0, len(im.instances))
	for _, inst := range im.instances {
		result = append(result, inst)
	}
	return result
}

// Get returns an instance by ID
func (im *InstanceManager) Get(id string) (*Instance, bool) {
	inst, ok := im.instances[id]
	return inst, ok
}

// FindByName returns an instance by its display name.
func (im *InstanceManager) FindByName(name string) (*Instance, bool) {
	for _, inst := range im.instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

// Create creates a new instance
func (im *InstanceManager) Create(inst *Instance) error {
	if err := inst.Validate(); err != nil {
		return err
	}

	instPath := filepath.Join(im.basePath, "instances", inst.ID)

	// Create instance directory tree (game dir + natives dir from spec's layout)
	for _, sub := range []string{"", ".minecraft", "natives"} {
		if err := os.MkdirAll(filepath.Join(instPath, sub), 0755); err != nil {
			return err
		}
	}

	inst.Path = instPath
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}

	if err := im.save(inst); err != nil {
		return err
	}

	im.instances[inst.ID] = inst
	return nil
}

// Delete removes an instance
func (im *InstanceManager) Delete(id string) error {
	inst, ok := im.instances[id]
	if !ok {
		return nil
	}

	// Remove from disk
	if err := os.RemoveAll(inst.Path); err != nil {
		return err
	}

	delete(im.instances, id)
	return nil
}

// save writes instance config to disk
func (im *InstanceManager) save(inst *Instance) error {
	data, err := toml.Marshal(inst)
	if err != nil {
		return err
	}

	configPath := filepath.Join(inst.Path, "instance.toml")
	return os.WriteFile(configPath, data, 0644)
}

// Update updates an existing instance
func (im *InstanceManager) Update(inst *Instance) error {
	im.instances[inst.ID] = inst
	return im.save(inst)
}

// UpdateLastPlayed updates the last played timestamp
func (im *InstanceManager) UpdateLastPlayed(id string) error {
	inst, ok := im.instances[id]
	if !ok {
		return nil
	}
	inst.LastPlayed = time.Now()
	return im.save(inst)
}
