package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/logger"
	"github.com/frutacc/lcdpr-setup/internal/payload"
	"github.com/frutacc/lcdpr-setup/internal/service/common"
)

var (
	errSourceMissing     = errors.New("source file does not exist")
	errDirWithoutRecurse = errors.New("source is a directory; add the recursesubdirs flag")
)

// resolved is the outcome of expanding every file directive.
type resolved struct {
	entries []payload.Entry
	dirs    []payload.Dir
	skipped []string
}

// resolveFiles expands the manifest's file directives relative to baseDir.
func resolveFiles(ctx context.Context, m *config.Manifest, baseDir string) (*resolved, error) {
	res := new(resolved)

	for i := range m.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		directive := &m.Files[i]

		entries, dirs, err := resolveDirective(directive, baseDir)
		if err != nil {
			if errors.Is(err, errSourceMissing) && config.HasFlag(directive.Flags, config.FlagSkipIfSourceDoesntExist) {
				logger.WarnKV(ctx, "Optional source not found, skipping", "source", directive.Source)
				res.skipped = append(res.skipped, directive.Source)

				continue
			}

			return nil, fmt.Errorf("files[%d] %s: %w", i, directive.Source, err)
		}

		res.entries = append(res.entries, entries...)
		res.dirs = append(res.dirs, dirs...)
	}

	for i := range res.entries {
		res.entries[i].Name = fmt.Sprintf("files/%06d", i+1)
	}

	return res, nil
}

// resolveDirective returns the files and empty directories one directive contributes.
func resolveDirective(directive *config.FileEntry, baseDir string) ([]payload.Entry, []payload.Dir, error) {
	source := nativePath(directive.Source)
	if !filepath.IsAbs(source) {
		source = filepath.Join(baseDir, source)
	}

	recurse := config.HasFlag(directive.Flags, config.FlagRecurseSubdirs)
	createDirs := config.HasFlag(directive.Flags, config.FlagCreateAllSubdirs)

	matches, err := filepath.Glob(source)
	if err != nil {
		return nil, nil, fmt.Errorf("bad pattern: %w", err)
	}

	if len(matches) == 0 {
		return nil, nil, errSourceMissing
	}

	sort.Strings(matches)

	wildcard := strings.ContainsAny(filepath.Base(source), "*?[")

	var (
		entries []payload.Entry
		dirs    []payload.Dir
	)

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", match, err)
		}

		if !info.IsDir() {
			entry, err := newEntry(match, directive.DestDir, filepath.Base(match), info)
			if err != nil {
				return nil, nil, err
			}

			entries = append(entries, *entry)

			continue
		}

		if !recurse {
			if wildcard {
				continue
			}

			return nil, nil, errDirWithoutRecurse
		}

		// A wildcard keeps the matched directory's name; a bare directory source copies its contents.
		root := match
		if wildcard {
			root = filepath.Dir(match)
		}

		walked, walkedDirs, err := walkDir(match, root, directive.DestDir, createDirs)
		if err != nil {
			return nil, nil, err
		}

		entries = append(entries, walked...)
		dirs = append(dirs, walkedDirs...)
	}

	return entries, dirs, nil
}

// walkDir collects every file below dir, named relative to root.
func walkDir(dir, root, destDir string, createDirs bool) ([]payload.Entry, []payload.Dir, error) {
	var (
		entries []payload.Entry
		dirs    []payload.Dir
	)

	err := filepath.WalkDir(dir, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if createDirs && rel != "." {
				dirs = append(dirs, payload.Dir{DestDir: destDir, Path: filepath.ToSlash(rel)})
			}

			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		entry, err := newEntry(current, destDir, rel, info)
		if err != nil {
			return err
		}

		entries = append(entries, *entry)

		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	return entries, dirs, nil
}

func newEntry(source, destDir, rel string, info fs.FileInfo) (*payload.Entry, error) {
	checksum, err := common.FileChecksum(source)
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", source, err)
	}

	return &payload.Entry{
		DestDir:  destDir,
		Path:     path.Clean(filepath.ToSlash(rel)),
		Mode:     uint32(info.Mode().Perm()),
		Size:     info.Size(),
		Checksum: common.EncodeChecksum(checksum),
		Source:   source,
	}, nil
}

// nativePath accepts both separators in manifests written on Windows.
func nativePath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}
