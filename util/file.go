package util

import (
	"os"
	"strings"
)

// EnsureDir creates the directory (and parents) if it does not exist yet.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// WriteToFile writes the given lines to a file, replacing its contents.
func WriteToFile(savePath string, content ...string) error {
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")+"\n"), 0644)
}

// AppendToFile appends the given lines to a file, creating it if needed.
func AppendToFile(savePath string, content ...string) error {
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}
