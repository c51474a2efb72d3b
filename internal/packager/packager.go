// Package packager bundles a SKU's processed outputs into a ZIP archive with
// a manifest describing every item of the batch.
package packager

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"photo-sku-backend/internal/models"
	"photo-sku-backend/internal/storage"
)

const (
	ManifestName   = "manifest.json"
	OriginalsDir   = "originals"
	ContentTypeZip = "application/zip"
)

var ErrNothingToPackage = errors.New("nothing to package")

type Options struct {
	IncludeOriginals bool
}

// Archive is a finished ZIP held in memory.
type Archive struct {
	Name  string
	Data  []byte
	Files []string
}

type ManifestEntry struct {
	ID       string              `json:"id"`
	Original string              `json:"original"`
	Final    string              `json:"final"`
	Type     models.MediaKind    `json:"type"`
	Status   models.ResultStatus `json:"status"`
	Error    string              `json:"error,omitempty"`
}

type Manifest struct {
	SKU       string          `json:"sku"`
	CreatedAt time.Time       `json:"createdAt"`
	Files     []ManifestEntry `json:"files"`
}

type Packager struct {
	store storage.Store
	level int
	now   func() time.Time
}

type Option func(*Packager)

func WithCompressionLevel(level int) Option {
	return func(p *Packager) { p.level = level }
}

func WithClock(now func() time.Time) Option {
	return func(p *Packager) { p.now = now }
}

func New(store storage.Store, opts ...Option) *Packager {
	p := &Packager{
		store: store,
		level: flate.BestCompression,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build reads every deliverable file named by the ledger and writes it into a
// new archive alongside manifest.json.
func (p *Packager) Build(ctx context.Context, ledger *models.BatchLedger, opts Options) (*Archive, error) {
	if ledger == nil || len(ledger.Results) == 0 {
		return nil, ErrNothingToPackage
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	level := p.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	now := p.now().UTC()
	archive := &Archive{}
	manifest := Manifest{SKU: ledger.SKU, CreatedAt: now}

	for _, r := range ledger.Results {
		manifest.Files = append(manifest.Files, ManifestEntry{
			ID:       r.ID,
			Original: r.OriginalName,
			Final:    r.FinalName,
			Type:     r.Kind,
			Status:   r.Status,
			Error:    r.Error,
		})

		name, location := entryFor(r, opts)
		if location == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := p.store.Read(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s for %s: %w", location, r.ID, err)
		}
		if err := addFile(zw, name, data, now); err != nil {
			return nil, err
		}
		archive.Files = append(archive.Files, name)
	}

	if len(archive.Files) == 0 {
		return nil, ErrNothingToPackage
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := addFile(zw, ManifestName, manifestData, now); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	archive.Name = ArchiveName(ledger.SKU, now)
	archive.Data = buf.Bytes()
	return archive, nil
}

// entryFor decides where a result lives inside the archive and where to read
// it from. An empty location means the result contributes no file.
func entryFor(r models.ProcessResult, opts Options) (name, location string) {
	switch r.Status {
	case models.StatusDone:
		return r.FinalName, r.OutputLocation
	case models.StatusSkipped:
		return r.FinalName, r.SourceLocation
	case models.StatusError:
		if opts.IncludeOriginals && r.OriginalName != "" {
			return path.Join(OriginalsDir, path.Base(r.OriginalName)), r.SourceLocation
		}
	}
	return "", ""
}

func addFile(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// ArchiveName returns photo-sku-{sku}-{unixMillis}-{hash}.zip where hash is
// the first 8 hex digits of md5(sku + unixMillis).
func ArchiveName(sku string, at time.Time) string {
	ts := strconv.FormatInt(at.UnixMilli(), 10)
	sum := md5.Sum([]byte(sku + ts))
	return fmt.Sprintf("photo-sku-%s-%s-%s.zip", sku, ts, hex.EncodeToString(sum[:])[:8])
}
