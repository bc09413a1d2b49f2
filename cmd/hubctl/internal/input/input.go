package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
)

// maxImageBytes matches the backend's multipart limit.
const maxImageBytes = 10 << 20

// ParseID parses a positive numeric identifier argument.
func ParseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q: must be a positive number", what, arg)
	}
	return id, nil
}

// ReadImage loads an upload from disk. An empty path yields nil.
func ReadImage(path string) (*sdk.Image, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("image %s is a directory", path)
	}
	if info.Size() > maxImageBytes {
		return nil, fmt.Errorf("image %s is larger than %d MB", path, maxImageBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &sdk.Image{Filename: filepath.Base(path), Data: data}, nil
}
