package packager

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/payload"
	"github.com/frutacc/lcdpr-setup/internal/service/common"
	"github.com/frutacc/lcdpr-setup/internal/version"
)

// StubBasename is the setup binary the packager seals payloads onto.
const StubBasename = "lcdpr-setup"

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the manifest to build (defaults to setup.yaml).
	ConfigPath string
	// StubPath is the setup binary to prepend. Defaults to lcdpr-setup next to the packager.
	StubPath string
	// OutputDir overrides the manifest's output_dir.
	OutputDir string
	// CompressionLevel is a gzip level; zero means gzip.BestCompression.
	CompressionLevel int
}

// Result describes the installer that was written.
type Result struct {
	// OutputPath is the installer file.
	OutputPath string
	// Files is the number of packaged files.
	Files int
	// Bytes is the uncompressed size of the packaged files.
	Bytes int64
	// InstallerSize is the size of the installer file.
	InstallerSize int64
	// Skipped lists optional sources that were missing.
	Skipped []string
}

var errStubHasPayload = errors.New("stub already carries a payload; pass the bare lcdpr-setup binary")

// Run builds the installer described by the manifest.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "lcdpr-packager")

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	manifest, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	stubPath, err := stubPath(opts.StubPath)
	if err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("manifest dir: %w", err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = nativePath(manifest.OutputDir)
		if !filepath.IsAbs(outputDir) {
			outputDir = filepath.Join(baseDir, outputDir)
		}
	}

	ctx = logger.WithKV(ctx, "app", manifest.AppName, "version", manifest.AppVersion)

	logger.Info(ctx, "Resolving file directives")

	files, err := resolveFiles(ctx, manifest, baseDir)
	if err != nil {
		return nil, err
	}

	index := &payload.Index{
		Manifest: manifest,
		Entries:  files.entries,
		Dirs:     files.dirs,
		BuiltAt:  time.Now().UTC(),
		Builder:  version.Short(),
	}

	level := opts.CompressionLevel
	if level == 0 {
		level = gzip.BestCompression
	}

	outputPath := filepath.Join(outputDir, manifest.OutputFilename())

	size, err := build(ctx, index, stubPath, outputPath, level)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Installer written", "path", outputPath, "files", len(index.Entries))

	return &Result{
		OutputPath:    outputPath,
		Files:         len(index.Entries),
		Bytes:         index.TotalSize(),
		InstallerSize: size,
		Skipped:       files.skipped,
	}, nil
}

// build writes the archive to a temporary file and seals it with the stub.
func build(ctx context.Context, index *payload.Index, stubPath, outputPath string, level int) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	archive, err := os.CreateTemp(filepath.Dir(outputPath), ".payload-*.tar.gz")
	if err != nil {
		return 0, fmt.Errorf("create temporary archive: %w", err)
	}

	defer func() {
		_ = os.Remove(archive.Name())
	}()

	logger.InfoKV(ctx, "Compressing files", "count", len(index.Entries), "bytes", index.TotalSize())

	err = payload.WriteArchive(ctx, archive, index, level)
	if closeErr := archive.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temporary archive: %w", closeErr)
	}

	if err != nil {
		return 0, fmt.Errorf("write archive: %w", err)
	}

	logger.InfoKV(ctx, "Sealing installer", "stub", stubPath)

	return payload.Seal(stubPath, archive.Name(), outputPath)
}

// stubPath picks the stub and makes sure it is a bare setup binary.
func stubPath(explicit string) (string, error) {
	stub := explicit
	if stub == "" {
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate packager: %w", err)
		}

		stub = filepath.Join(filepath.Dir(self), common.ExecutableName(StubBasename))
	}

	if _, err := os.Stat(stub); err != nil {
		return "", fmt.Errorf("setup stub: %w", err)
	}

	inst, err := payload.Open(stub)
	if err == nil {
		_ = inst.Close()
		return "", fmt.Errorf("%s: %w", stub, errStubHasPayload)
	}

	if !errors.Is(err, payload.ErrNoPayload) {
		return "", fmt.Errorf("inspect stub: %w", err)
	}

	return stub, nil
}
