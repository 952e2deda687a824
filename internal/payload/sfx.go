package payload

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// Magic terminates every installer.
	Magic = "LCDPRSFX"

	// lengthSize is the width of the archive length stored before Magic.
	lengthSize = 8

	// searchLimit bounds how far from the end Magic is looked for.
	// Code signing appends a certificate table after the payload; it stays well below this.
	searchLimit = 64 * 1024
)

// gzipMagic opens every gzip stream.
//
//nolint:gochecknoglobals // Constant byte sequence.
var gzipMagic = []byte{0x1f, 0x8b}

var (
	// ErrNoPayload is returned for a bare stub, such as the copied uninstaller.
	ErrNoPayload = errors.New("no payload attached")

	errCorruptTrailer = errors.New("corrupt payload trailer")
)

// Seal writes stub followed by archive and the trailer to outPath.
func Seal(stubPath, archivePath, outPath string) (int64, error) {
	out, err := os.OpenFile(filepath.Clean(outPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return 0, fmt.Errorf("create installer: %w", err)
	}

	written, err := seal(out, stubPath, archivePath)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close installer: %w", closeErr)
	}

	if err != nil {
		_ = os.Remove(outPath)
		return 0, err
	}

	return written, nil
}

func seal(out io.Writer, stubPath, archivePath string) (int64, error) {
	stubSize, err := appendFile(out, stubPath)
	if err != nil {
		return 0, fmt.Errorf("append stub: %w", err)
	}

	archiveSize, err := appendFile(out, archivePath)
	if err != nil {
		return 0, fmt.Errorf("append archive: %w", err)
	}

	trailer := make([]byte, lengthSize, lengthSize+len(Magic))
	binary.LittleEndian.PutUint64(trailer, uint64(archiveSize))
	trailer = append(trailer, Magic...)

	if _, err = out.Write(trailer); err != nil {
		return 0, fmt.Errorf("write trailer: %w", err)
	}

	return stubSize + archiveSize + int64(len(trailer)), nil
}

func appendFile(out io.Writer, path string) (int64, error) {
	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = in.Close()
	}()

	return io.Copy(out, in)
}

// Installer is an opened installer file.
type Installer struct {
	file *os.File
	// StubSize is the length of the executable part before the archive.
	StubSize int64
	// Index describes the packaged files.
	Index *Index

	archive *io.SectionReader
}

// Open locates the payload of the installer at path and reads its index.
// It returns ErrNoPayload when path is a stub without a payload.
func Open(path string) (*Installer, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open installer: %w", err)
	}

	inst, err := open(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return inst, nil
}

func open(file *os.File) (*Installer, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat installer: %w", err)
	}

	start, length, err := locateArchive(file, info.Size())
	if err != nil {
		return nil, err
	}

	inst := &Installer{
		file:     file,
		StubSize: start,
		archive:  io.NewSectionReader(file, start, length),
	}

	gz, err := gzip.NewReader(inst.reader())
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}

	defer func() {
		_ = gz.Close()
	}()

	inst.Index, err = readIndex(tar.NewReader(gz))
	if err != nil {
		return nil, err
	}

	return inst, nil
}

// locateArchive finds the trailer near the end of the file and returns the archive bounds.
func locateArchive(r io.ReaderAt, size int64) (int64, int64, error) {
	trailerSize := int64(lengthSize + len(Magic))
	if size < trailerSize {
		return 0, 0, ErrNoPayload
	}

	readSize := min(int64(searchLimit), size)
	tailOffset := size - readSize

	tail := make([]byte, readSize)
	if _, err := r.ReadAt(tail, tailOffset); err != nil && !errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("read trailer: %w", err)
	}

	idx := bytes.LastIndex(tail, []byte(Magic))
	if idx == -1 {
		return 0, 0, ErrNoPayload
	}

	if idx < lengthSize {
		return 0, 0, fmt.Errorf("%w: %w", ErrNoPayload, errCorruptTrailer)
	}

	length := int64(binary.LittleEndian.Uint64(tail[idx-lengthSize : idx]))
	end := tailOffset + int64(idx-lengthSize)
	start := end - length

	if length <= 0 || start < 0 {
		return 0, 0, fmt.Errorf("%w: %w", ErrNoPayload, errCorruptTrailer)
	}

	// The magic string also lives in the stub's own data; a real trailer points at a gzip stream.
	head := make([]byte, len(gzipMagic))
	if _, err := r.ReadAt(head, start); err != nil || !bytes.Equal(head, gzipMagic) {
		return 0, 0, ErrNoPayload
	}

	return start, length, nil
}

func (i *Installer) reader() io.Reader {
	return io.NewSectionReader(i.archive, 0, i.archive.Size())
}

// Walk streams every packaged file to fn in archive order.
func (i *Installer) Walk(ctx context.Context, fn func(entry *Entry, contents io.Reader) error) error {
	return walkArchive(ctx, i.reader(), fn)
}

// CopyStub writes the executable part without the payload to dst.
// The copy runs as the uninstaller.
func (i *Installer) CopyStub(dst string) error {
	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	_, err = io.Copy(out, io.NewSectionReader(i.file, 0, i.StubSize))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("copy stub to %s: %w", dst, err)
	}

	return nil
}

// Close releases the installer file.
func (i *Installer) Close() error {
	return i.file.Close()
}
