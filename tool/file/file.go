// Package file provides a tool for reading, writing and listing text
// files inside a confined working directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

// Options configure the file tool.
type Options struct {
	// BaseDir confines all file access; paths escaping it are rejected.
	BaseDir string

	// MaxBytes caps the size of files the tool will read.
	MaxBytes int64
}

type fileArgs struct {
	Action  string `json:"action" jsonschema:"description=One of 'read', 'write' or 'list'"`
	Path    string `json:"path,omitempty" jsonschema:"description=File or directory path relative to the working directory"`
	Content string `json:"content,omitempty" jsonschema:"description=Content to write when action is 'write'"`
}

// New creates the file tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		BaseDir:  ".",
		MaxBytes: 1_000_000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"file",
		"Read, write or list text files in the working directory",
		fileArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			action, _ := args["action"].(string)
			relPath, _ := args["path"].(string)
			switch action {
			case "read":
				return read(opts, relPath)
			case "write":
				content, _ := args["content"].(string)
				return write(opts, relPath, content)
			case "list":
				return list(opts, relPath)
			default:
				return nil, fmt.Errorf("unknown action %q, expected 'read', 'write' or 'list'", action)
			}
		},
	)
}

func resolve(opts Options, rel string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(opts.BaseDir, rel))
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(opts.BaseDir)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the working directory", rel)
	}
	return abs, nil
}

func read(opts Options, rel string) (any, error) {
	path, err := resolve(opts, rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > opts.MaxBytes {
		return nil, fmt.Errorf("file %q exceeds maximum size of %d bytes", rel, opts.MaxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": rel, "content": string(data)}, nil
}

func write(opts Options, rel, content string) (any, error) {
	path, err := resolve(opts, rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return map[string]any{"path": rel, "bytes_written": len(content)}, nil
}

func list(opts Options, rel string) (any, error) {
	path, err := resolve(opts, rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return map[string]any{"path": rel, "entries": names}, nil
}
