package payload

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

var (
	errSizeChanged    = errors.New("source changed size while packaging")
	errUnexpectedItem = errors.New("unexpected archive member")
	errMissingEntries = errors.New("archive ended before all files were read")
	errNoIndex        = errors.New("archive does not start with the index")
)

// WriteArchive streams the index and every entry's Source into w as tar.gz.
func WriteArchive(ctx context.Context, w io.Writer, idx *Index, level int) error {
	if err := idx.Validate(); err != nil {
		return err
	}

	indexData, err := encodeIndex(idx)
	if err != nil {
		return err
	}

	gz, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return fmt.Errorf("gzip writer: %w", err)
	}

	tw := tar.NewWriter(gz)

	modTime := idx.BuiltAt
	if modTime.IsZero() {
		modTime = time.Now()
	}

	//nolint:exhaustruct // Remaining header fields stay zero.
	if err = tw.WriteHeader(&tar.Header{
		Name:    IndexName,
		Mode:    0o644,
		Size:    int64(len(indexData)),
		ModTime: modTime,
	}); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}

	if _, err = tw.Write(indexData); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	for i := range idx.Entries {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = writeEntry(tw, &idx.Entries[i], modTime); err != nil {
			return err
		}
	}

	if err = tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	if err = gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}

	return nil
}

func writeEntry(tw *tar.Writer, entry *Entry, modTime time.Time) error {
	source, err := os.Open(filepath.Clean(entry.Source))
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Source, err)
	}

	defer func() {
		_ = source.Close()
	}()

	//nolint:exhaustruct // Remaining header fields stay zero.
	if err = tw.WriteHeader(&tar.Header{
		Name:    entry.Name,
		Mode:    int64(entry.Mode),
		Size:    entry.Size,
		ModTime: modTime,
	}); err != nil {
		return fmt.Errorf("write header for %s: %w", entry.Source, err)
	}

	written, err := io.Copy(tw, io.LimitReader(source, entry.Size))
	if err != nil {
		return fmt.Errorf("copy %s: %w", entry.Source, err)
	}

	if written != entry.Size {
		return fmt.Errorf("%s: %w", entry.Source, errSizeChanged)
	}

	return nil
}

// readIndex reads the first member of the archive.
func readIndex(tr *tar.Reader) (*Index, error) {
	header, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}

	if header.Name != IndexName {
		return nil, fmt.Errorf("%s: %w", header.Name, errNoIndex)
	}

	data, err := io.ReadAll(tr)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return decodeIndex(data)
}

// walkArchive reads an archive produced by WriteArchive and hands each file to fn.
func walkArchive(ctx context.Context, r io.Reader, fn func(entry *Entry, contents io.Reader) error) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}

	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)

	idx, err := readIndex(tr)
	if err != nil {
		return err
	}

	byName := make(map[string]*Entry, len(idx.Entries))
	for i := range idx.Entries {
		byName[idx.Entries[i].Name] = &idx.Entries[i]
	}

	var header *tar.Header

	for {
		if err = ctx.Err(); err != nil {
			return err
		}

		header, err = tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		entry, ok := byName[header.Name]
		if !ok {
			return fmt.Errorf("%s: %w", header.Name, errUnexpectedItem)
		}

		delete(byName, header.Name)

		if err = fn(entry, tr); err != nil {
			return err
		}
	}

	if len(byName) > 0 {
		return fmt.Errorf("%d left: %w", len(byName), errMissingEntries)
	}

	// The gzip checksum is only verified once the stream is read to its end.
	if _, err = io.Copy(io.Discard, gz); err != nil {
		return fmt.Errorf("verify archive: %w", err)
	}

	return nil
}
