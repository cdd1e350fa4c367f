package dqn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ModelPath resolves relative file names under the model directory
func (a *Agent) ModelPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(a.config.ModelDir, filename)
}

// Save writes the online network weights
func (a *Agent) Save(filename string) error {
	path := a.ModelPath(filename)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("error creating model directory: %w", err)
	}
	bs, err := json.Marshal(a.model)
	if err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}
	if err := os.WriteFile(path, bs, 0644); err != nil {
		return fmt.Errorf("error saving model: %w", err)
	}
	a.log.WithField("path", path).Info("saved model weights")
	return nil
}

// Load reads the online network weights. The target network is left
// untouched until SyncTarget is called.
func (a *Agent) Load(filename string) error {
	path := a.ModelPath(filename)
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading model: %w", err)
	}
	if err := json.Unmarshal(bs, a.model); err != nil {
		return fmt.Errorf("error loading model from %s: %w", path, err)
	}
	a.log.WithField("path", path).Info("loaded model weights")
	return nil
}
