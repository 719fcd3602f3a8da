package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Writer serialises artifacts into a data directory.
type Writer struct {
	dataDir  string
	compress bool
}

// NewWriter creates a Writer that writes artifacts into dataDir.
func NewWriter(dataDir string, compress bool) *Writer {
	return &Writer{dataDir: dataDir, compress: compress}
}

// Write atomically replaces the artifact of the given kind with v. entries
// is recorded in the header for inspection without decoding the payload.
func (w *Writer) Write(kind Kind, entries int, v any) (Info, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Info{}, fmt.Errorf("marshaling %s: %w", kind, err)
	}
	payload := raw
	var flags uint32
	if w.compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return Info{}, fmt.Errorf("creating zstd encoder: %w", err)
		}
		payload = enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
		enc.Close()
		flags |= flagZstd
	}

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return Info{}, fmt.Errorf("creating artifact directory: %w", err)
	}
	finalPath := filepath.Join(w.dataDir, kind.FileName())
	tmpPath := finalPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return Info{}, fmt.Errorf("creating temp artifact file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	header := Header{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		Kind:        kind,
		Flags:       flags,
		Entries:     uint64(entries),
		CreatedAt:   time.Now().Unix(),
		PayloadOff:  int64(HeaderSize),
		PayloadSize: int64(len(payload)),
		RawSize:     int64(len(raw)),
	}
	headerBytes := encodeHeader(header)
	if _, err := f.Write(headerBytes); err != nil {
		return Info{}, fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return Info{}, fmt.Errorf("writing %s payload: %w", kind, err)
	}
	checksum := crc32.ChecksumIEEE(payload)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], uint32(kind))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(len(payload)))
	binary.LittleEndian.PutUint32(footer[16:20], MagicBytes)
	binary.LittleEndian.PutUint32(footer[20:24], crc32.ChecksumIEEE(headerBytes))
	if _, err := f.Write(footer); err != nil {
		return Info{}, fmt.Errorf("writing footer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return Info{}, fmt.Errorf("syncing artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Info{}, fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return Info{}, fmt.Errorf("renaming artifact file: %w", err)
	}
	return Info{
		Kind:       kind,
		Path:       finalPath,
		Entries:    entries,
		Checksum:   checksum,
		Compressed: w.compress,
		Size:       int64(HeaderSize + len(payload) + FooterSize),
		RawSize:    int64(len(raw)),
	}, nil
}

func encodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Kind))
	binary.LittleEndian.PutUint32(b[12:16], h.Flags)
	binary.LittleEndian.PutUint64(b[16:24], h.Entries)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.PayloadOff))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.PayloadSize))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.RawSize))
	return b
}
