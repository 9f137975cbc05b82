// Package download turns a document URL into a validated resume file on
// disk, classifying the payload by signature and unwrapping zip containers.
package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-harvester/internal/retry"
)

// ErrArchiveContentMissing means a zip payload held neither a document entry
// nor a word-processor manifest. Retrying would fetch the same archive, so
// acquisition fails immediately.
var ErrArchiveContentMissing = errors.New("archive contains no usable document")

// ErrPayloadInvalid means the downloaded bytes matched no known document
// signature, typically an HTML error page served with status 200.
var ErrPayloadInvalid = errors.New("payload matches no document signature")

// Status is the terminal state of one acquisition.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome describes where an acquisition ended up.
type Outcome struct {
	Status       Status
	FinalPath    string
	SizeBytes    int64
	DetectedType string // pdf, doc, docx
}

// Streamer is the download capability the acquirer needs from a session.
type Streamer interface {
	DownloadStream(ctx context.Context, url, destination string) error
}

// Acquirer downloads, validates, and places resume documents.
type Acquirer struct {
	streamer   Streamer
	retries    int
	retryDelay time.Duration
}

// NewAcquirer builds an acquirer performing up to retries attempts with a
// fixed delay between them.
func NewAcquirer(streamer Streamer, retries int, retryDelay time.Duration) *Acquirer {
	return &Acquirer{streamer: streamer, retries: retries, retryDelay: retryDelay}
}

// Acquire fetches url into destDir under baseName plus a detected extension.
// A valid file already at any candidate path short-circuits with no network
// traffic. All intermediate work happens in a temp directory that is removed
// on every path out.
func (a *Acquirer) Acquire(ctx context.Context, url, destDir, baseName string) (*Outcome, error) {
	if out := a.existingValid(destDir, baseName); out != nil {
		slog.Debug("valid document already present, skipping download", "path", out.FinalPath)
		return out, nil
	}

	// Temp dir lives inside destDir so the final rename never crosses a
	// filesystem boundary.
	tmpDir, err := os.MkdirTemp(destDir, ".acquire-")
	if err != nil {
		return &Outcome{Status: StatusFailed}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var finalPath string
	var size int64
	var detected string

	op := func() error {
		rawPath := filepath.Join(tmpDir, "payload")
		if err := a.streamer.DownloadStream(ctx, url, rawPath); err != nil {
			return err
		}

		kind, err := sniff(rawPath)
		if err != nil {
			return err
		}

		switch kind {
		case "pdf", "doc":
			detected = kind
		case "zip":
			extracted, extKind, err := unwrapArchive(rawPath, tmpDir)
			if err != nil {
				if errors.Is(err, ErrArchiveContentMissing) {
					return retry.Permanent(err)
				}
				return err
			}
			rawPath = extracted
			detected = extKind
		default:
			return ErrPayloadInvalid
		}

		dest := filepath.Join(destDir, baseName+"."+detected)
		if err := os.Rename(rawPath, dest); err != nil {
			return fmt.Errorf("place document: %w", err)
		}
		info, err := os.Stat(dest)
		if err != nil {
			return fmt.Errorf("stat placed document: %w", err)
		}
		finalPath = dest
		size = info.Size()
		return nil
	}

	if err := retry.Do(ctx, a.retries, a.retryDelay, op, nil); err != nil {
		return &Outcome{Status: StatusFailed}, err
	}
	return &Outcome{Status: StatusSuccess, FinalPath: finalPath, SizeBytes: size, DetectedType: detected}, nil
}

// existingValid returns a skipped outcome when a prior run already left a
// signature-valid document at a candidate path.
func (a *Acquirer) existingValid(destDir, baseName string) *Outcome {
	for _, ext := range []string{"pdf", "docx", "doc"} {
		path := filepath.Join(destDir, baseName+"."+ext)
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			continue
		}
		if kind, err := sniff(path); err == nil && kind != "" {
			return &Outcome{Status: StatusSkipped, FinalPath: path, SizeBytes: info.Size(), DetectedType: ext}
		}
	}
	return nil
}

var (
	pdfMagic = []byte("%PDF")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

// sniff classifies a file by leading bytes: pdf, doc (legacy OLE container),
// or zip. Anything else, HTML error pages included, is ErrPayloadInvalid.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for sniff: %w", err)
	}
	defer f.Close()

	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, pdfMagic):
		return "pdf", nil
	case bytes.HasPrefix(head, oleMagic):
		return "doc", nil
	case bytes.HasPrefix(head, zipMagic):
		return "zip", nil
	}
	return "", ErrPayloadInvalid
}

// unwrapArchive resolves a zip payload to a single document. Priority: a pdf
// entry, then a legacy .doc entry, then the archive itself when it carries
// the word-processor package manifest, meaning the whole zip is the docx.
func unwrapArchive(archivePath, tmpDir string) (string, string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", "", fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	var pdfEntry, docEntry *zip.File
	isPackage := false
	for _, f := range r.File {
		lower := strings.ToLower(f.Name)
		switch {
		case strings.HasSuffix(lower, ".pdf") && pdfEntry == nil:
			pdfEntry = f
		case strings.HasSuffix(lower, ".doc") && docEntry == nil:
			docEntry = f
		case lower == "word/document.xml":
			isPackage = true
		}
	}

	if pdfEntry != nil {
		path, err := extractEntry(pdfEntry, filepath.Join(tmpDir, "entry.pdf"))
		return path, "pdf", err
	}
	if docEntry != nil {
		path, err := extractEntry(docEntry, filepath.Join(tmpDir, "entry.doc"))
		return path, "doc", err
	}
	if isPackage {
		return archivePath, "docx", nil
	}
	return "", "", ErrArchiveContentMissing
}

func extractEntry(entry *zip.File, dest string) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create extracted file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return "", fmt.Errorf("extract archive entry %s: %w", entry.Name, err)
	}
	return dest, nil
}
