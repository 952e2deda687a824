package packager

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/frutacc/lcdpr-setup/internal/config"
	"github.com/frutacc/lcdpr-setup/internal/payload"
)

// checksumPreview is how many checksum characters the inspect table shows.
const checksumPreview = 12

// Inspect prints the files a manifest resolves to, or the files inside a built installer.
func Inspect(ctx context.Context, path string, w io.Writer) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return inspectManifest(ctx, path, w)
	default:
		return inspectInstaller(path, w)
	}
}

func inspectManifest(ctx context.Context, path string, w io.Writer) error {
	manifest, err := config.Load(path)
	if err != nil {
		return err
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("manifest dir: %w", err)
	}

	files, err := resolveFiles(ctx, manifest, baseDir)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s %s -> %s\n", manifest.AppName, manifest.AppVersion, manifest.OutputFilename())

	table := tablewriter.NewTable(w)
	table.Header([]string{"Source", "Destination", "Size"})

	for _, entry := range files.entries {
		rel, relErr := filepath.Rel(baseDir, entry.Source)
		if relErr != nil {
			rel = entry.Source
		}

		if err = table.Append([]string{rel, entry.Target(), humanSize(entry.Size)}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err = table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	for _, skipped := range files.skipped {
		_, _ = fmt.Fprintln(w, color.YellowString("missing, skipped: %s", skipped))
	}

	return nil
}

func inspectInstaller(path string, w io.Writer) error {
	inst, err := payload.Open(path)
	if err != nil {
		return err
	}

	defer func() {
		_ = inst.Close()
	}()

	idx := inst.Index

	_, _ = fmt.Fprintf(w, "%s %s, built %s by packager %s\n",
		idx.Manifest.AppName, idx.Manifest.AppVersion, idx.BuiltAt.Format("2006-01-02 15:04"), idx.Builder)

	table := tablewriter.NewTable(w)
	table.Header([]string{"Destination", "Size", "Mode", "SHA-512"})

	for _, entry := range idx.Entries {
		checksum := entry.Checksum
		if len(checksum) > checksumPreview {
			checksum = checksum[:checksumPreview] + "…"
		}

		row := []string{entry.Target(), humanSize(entry.Size), "0" + strconv.FormatUint(uint64(entry.Mode), 8), checksum}
		if err = table.Append(row); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err = table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	return nil
}

// PrintSummary writes a short report of a finished build.
func PrintSummary(w io.Writer, res *Result) {
	green := color.New(color.FgGreen).SprintfFunc()
	yellow := color.New(color.FgYellow).SprintfFunc()

	_, _ = fmt.Fprintln(w, green("Installer ready: %s", res.OutputPath))
	_, _ = fmt.Fprintf(w, "  %d files, %s packaged into %s\n", res.Files, humanSize(res.Bytes), humanSize(res.InstallerSize))

	for _, skipped := range res.Skipped {
		_, _ = fmt.Fprintln(w, yellow("  optional source not found: %s", skipped))
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
