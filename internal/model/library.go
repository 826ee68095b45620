package model

import "github.com/google/uuid"

// ConfigurationLibrary holds a collection of saved roof configurations.
type ConfigurationLibrary struct {
	Configurations []Configuration `json:"configurations"`
}

// NewConfigurationLibrary creates an empty library.
func NewConfigurationLibrary() ConfigurationLibrary {
	return ConfigurationLibrary{
		Configurations: []Configuration{},
	}
}

// Upsert stores a configuration, replacing an existing one with the same ID.
func (l *ConfigurationLibrary) Upsert(c Configuration) {
	c.Touch()
	for i := range l.Configurations {
		if l.Configurations[i].ID == c.ID {
			l.Configurations[i] = c.Clone()
			return
		}
	}
	l.Configurations = append(l.Configurations, c.Clone())
}

// Remove removes a configuration by ID. Returns true if found and removed.
func (l *ConfigurationLibrary) Remove(id string) bool {
	for i, c := range l.Configurations {
		if c.ID == id {
			l.Configurations = append(l.Configurations[:i], l.Configurations[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the configuration with the given ID, or nil.
func (l *ConfigurationLibrary) FindByID(id string) *Configuration {
	for i := range l.Configurations {
		if l.Configurations[i].ID == id {
			return &l.Configurations[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first configuration with the given name, or nil.
func (l *ConfigurationLibrary) FindByName(name string) *Configuration {
	for i := range l.Configurations {
		if l.Configurations[i].Name == name {
			return &l.Configurations[i]
		}
	}
	return nil
}

// Names returns the configuration names in storage order.
func (l *ConfigurationLibrary) Names() []string {
	names := make([]string, len(l.Configurations))
	for i, c := range l.Configurations {
		names[i] = c.Name
	}
	return names
}

// Duplicate stores a copy of the configuration under a fresh ID and name.
// The copy's grid is independent of the original.
func (l *ConfigurationLibrary) Duplicate(id, name string) (Configuration, bool) {
	src := l.FindByID(id)
	if src == nil {
		return Configuration{}, false
	}
	cp := src.Clone()
	cp.ID = uuid.New().String()[:8]
	cp.Name = name
	cp.CreatedAt = ""
	cp.Touch()
	cp.CreatedAt = cp.UpdatedAt
	l.Configurations = append(l.Configurations, cp)
	return cp, true
}
