// Package segment persists the build artifacts (corpus, TF, DF, TF-IDF) as
// self-describing files. Each file is a fixed 64-byte header, a JSON payload
// (optionally zstd-compressed), and a 32-byte footer carrying CRC32s of the
// payload and of the header. Files are written to a temporary name and
// renamed into place.
package segment

import (
	"fmt"
)

// MagicBytes identifies a valid .lsa artifact file.
const (
	MagicBytes    uint32 = 0x4C534146
	FormatVersion uint32 = 2
	HeaderSize    int    = 64
	FooterSize    int    = 32
	FileExt              = ".lsa"
)

// Kind identifies which table an artifact holds.
type Kind uint32

const (
	KindCorpus Kind = iota + 1
	KindTF
	KindDF
	KindTFIDF
)

// Kinds lists every artifact a complete build produces.
var Kinds = []Kind{KindCorpus, KindTF, KindDF, KindTFIDF}

func (k Kind) String() string {
	switch k {
	case KindCorpus:
		return "corpus"
	case KindTF:
		return "tf"
	case KindDF:
		return "df"
	case KindTFIDF:
		return "tfidf"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// FileName is the artifact's name inside a data directory.
func (k Kind) FileName() string {
	return k.String() + FileExt
}

const flagZstd uint32 = 1 << 0

// Header is the 64-byte header written at the start of every artifact.
type Header struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	Flags       uint32
	Entries     uint64
	CreatedAt   int64
	PayloadOff  int64
	PayloadSize int64
	RawSize     int64
}

// Compressed reports whether the payload is zstd-compressed.
func (h Header) Compressed() bool {
	return h.Flags&flagZstd != 0
}

// Info describes an artifact that was written or read.
type Info struct {
	Kind       Kind   `json:"kind"`
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	Checksum   uint32 `json:"checksum"`
	Compressed bool   `json:"compressed"`
	Size       int64  `json:"size"`
	RawSize    int64  `json:"raw_size"`
}
