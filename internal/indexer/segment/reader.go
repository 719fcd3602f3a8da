package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/Adithya-Monish-Kumar-K/lyricsearch/pkg/errors"
)

// Read loads the artifact of the given kind from dataDir and decodes its
// payload into v. Any structural problem (bad magic, wrong kind, truncated
// file, header or payload checksum mismatch) is reported as
// ErrCorruptArtifact.
func Read(dataDir string, kind Kind, v any) (Info, error) {
	path := filepath.Join(dataDir, kind.FileName())
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("reading %s artifact: %w", kind, err)
	}
	if len(data) < HeaderSize+FooterSize {
		return Info{}, fmt.Errorf("%s: file too small (%d bytes): %w", path, len(data), apperrors.ErrCorruptArtifact)
	}

	h := decodeHeader(data[:HeaderSize])
	if h.Magic != MagicBytes {
		return Info{}, fmt.Errorf("%s: bad magic 0x%08X: %w", path, h.Magic, apperrors.ErrCorruptArtifact)
	}
	if err := checkHeader(data[:HeaderSize], data[len(data)-FooterSize:]); err != nil {
		return Info{}, fmt.Errorf("%s: %v: %w", path, err, apperrors.ErrCorruptArtifact)
	}
	if h.Version != FormatVersion {
		return Info{}, fmt.Errorf("%s: unsupported version %d: %w", path, h.Version, apperrors.ErrCorruptArtifact)
	}
	if h.Kind != kind {
		return Info{}, fmt.Errorf("%s: holds %s, want %s: %w", path, h.Kind, kind, apperrors.ErrCorruptArtifact)
	}
	compressed := h.Compressed()
	if h.RawSize < 0 || (!compressed && h.RawSize != h.PayloadSize) {
		return Info{}, fmt.Errorf("%s: raw size %d does not match payload: %w", path, h.RawSize, apperrors.ErrCorruptArtifact)
	}
	end := h.PayloadOff + h.PayloadSize
	if h.PayloadOff != int64(HeaderSize) || h.PayloadSize < 0 || end+int64(FooterSize) != int64(len(data)) {
		return Info{}, fmt.Errorf("%s: payload bounds do not match file size: %w", path, apperrors.ErrCorruptArtifact)
	}
	payload := data[h.PayloadOff:end]
	footer := data[end:]

	stored := binary.LittleEndian.Uint32(footer[0:4])
	checksum := crc32.ChecksumIEEE(payload)
	if stored != checksum {
		return Info{}, fmt.Errorf("%s: checksum mismatch (stored %08x, computed %08x): %w",
			path, stored, checksum, apperrors.ErrCorruptArtifact)
	}
	if binary.LittleEndian.Uint32(footer[16:20]) != MagicBytes {
		return Info{}, fmt.Errorf("%s: bad footer: %w", path, apperrors.ErrCorruptArtifact)
	}

	raw := payload
	if compressed {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Info{}, fmt.Errorf("creating zstd decoder: %w", err)
		}
		raw, err = dec.DecodeAll(payload, nil)
		dec.Close()
		if err != nil {
			return Info{}, fmt.Errorf("%s: decompressing payload: %v: %w", path, err, apperrors.ErrCorruptArtifact)
		}
		if int64(len(raw)) != h.RawSize {
			return Info{}, fmt.Errorf("%s: decompressed %d bytes, header says %d: %w",
				path, len(raw), h.RawSize, apperrors.ErrCorruptArtifact)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return Info{}, fmt.Errorf("%s: decoding payload: %v: %w", path, err, apperrors.ErrCorruptArtifact)
	}

	return Info{
		Kind:       kind,
		Path:       path,
		Entries:    int(h.Entries),
		Checksum:   checksum,
		Compressed: compressed,
		Size:       int64(len(data)),
		RawSize:    int64(len(raw)),
	}, nil
}

// Stat reads only the header and footer of an artifact.
func Stat(dataDir string, kind Kind) (Header, error) {
	path := filepath.Join(dataDir, kind.FileName())
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening %s artifact: %w", kind, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return Header{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size() < int64(HeaderSize+FooterSize) {
		return Header{}, fmt.Errorf("%s: file too small (%d bytes): %w", path, fi.Size(), apperrors.ErrCorruptArtifact)
	}
	buf := make([]byte, HeaderSize)
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Header{}, fmt.Errorf("%s: reading header: %v: %w", path, err, apperrors.ErrCorruptArtifact)
	}
	if _, err := f.ReadAt(footer, fi.Size()-int64(FooterSize)); err != nil {
		return Header{}, fmt.Errorf("%s: reading footer: %v: %w", path, err, apperrors.ErrCorruptArtifact)
	}
	h := decodeHeader(buf)
	if h.Magic != MagicBytes || h.Kind != kind {
		return Header{}, fmt.Errorf("%s: not a %s artifact: %w", path, kind, apperrors.ErrCorruptArtifact)
	}
	if err := checkHeader(buf, footer); err != nil {
		return Header{}, fmt.Errorf("%s: %v: %w", path, err, apperrors.ErrCorruptArtifact)
	}
	return h, nil
}

// checkHeader compares the header bytes against the CRC32 stored in footer.
func checkHeader(header, footer []byte) error {
	stored := binary.LittleEndian.Uint32(footer[20:24])
	if computed := crc32.ChecksumIEEE(header); stored != computed {
		return fmt.Errorf("header checksum mismatch (stored %08x, computed %08x)", stored, computed)
	}
	return nil
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(b[0:4]),
		Version:     binary.LittleEndian.Uint32(b[4:8]),
		Kind:        Kind(binary.LittleEndian.Uint32(b[8:12])),
		Flags:       binary.LittleEndian.Uint32(b[12:16]),
		Entries:     binary.LittleEndian.Uint64(b[16:24]),
		CreatedAt:   int64(binary.LittleEndian.Uint64(b[24:32])),
		PayloadOff:  int64(binary.LittleEndian.Uint64(b[32:40])),
		PayloadSize: int64(binary.LittleEndian.Uint64(b[40:48])),
		RawSize:     int64(binary.LittleEndian.Uint64(b[48:56])),
	}
}
