// Package plugins registers the builtin tool plugins.
package plugins

import (
	"toolvm/internal/download"
	"toolvm/internal/plugin"
	"toolvm/internal/plugins/java"
	"toolvm/internal/plugins/nodejs"
	"toolvm/internal/plugins/python"
)

// Options configures builtin plugin construction.
type Options struct {
	// Progress, when set, receives download progress from every plugin.
	Progress download.Progress
}

// RegisterBuiltins constructs the builtin plugins with a shared download
// cache directory and registers them.
func RegisterBuiltins(registry *plugin.Registry, cacheDir string, opts Options) error {
	var javaOpts []java.Option
	var nodeOpts []nodejs.Option
	var pythonOpts []python.Option
	if opts.Progress != nil {
		javaOpts = append(javaOpts, java.WithProgress(opts.Progress))
		nodeOpts = append(nodeOpts, nodejs.WithProgress(opts.Progress))
		pythonOpts = append(pythonOpts, python.WithProgress(opts.Progress))
	}

	javaPlugin := java.New(cacheDir, javaOpts...)
	nodePlugin := nodejs.New(cacheDir, nodeOpts...)
	pythonPlugin := python.New(cacheDir, pythonOpts...)

	if err := registry.Register(javaPlugin, java.Metadata()); err != nil {
		return err
	}
	if err := registry.Register(nodePlugin, nodejs.Metadata()); err != nil {
		return err
	}
	return registry.Register(pythonPlugin, python.Metadata())
}

// PinnedVersion reads the project pin file convention for a tool in dir
// (.nvmrc/.node-version, .python-version, .java-version). Empty string
// means no pin.
func PinnedVersion(toolID, dir string) string {
	switch toolID {
	case "java":
		return java.ReadVersionFile(dir)
	case "node":
		return nodejs.ReadVersionFile(dir)
	case "python":
		return python.ReadVersionFile(dir)
	}
	return ""
}
