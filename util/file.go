package util

import (
	"os"
	"path/filepath"
	"strings"
)

// WriteToFile replaces the file with the lines, creating parent directories
func WriteToFile(savePath string, lines ...string) error {
	if err := os.MkdirAll(filepath.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(savePath, []byte(content), 0644)
}

// AppendToFile adds each line to the end of the file (jsonl records)
func AppendToFile(savePath string, lines ...string) error {
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, l := range lines {
		if _, err = f.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}
