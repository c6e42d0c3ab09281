package domain

import "time"

// Kind classifies a source file by its role in the site.
type Kind uint8

const (
	// KindUnknown is a file outside every site directory. It is never a
	// build target itself and only matters as somebody's include.
	KindUnknown Kind = iota
	// KindContent is a page source compiled into one HTML artifact.
	KindContent
	// KindTemplate is a shared layout included by content.
	KindTemplate
	// KindUtil is a shared helper module included by content.
	KindUtil
	// KindConfig is the site configuration file. A change invalidates every page.
	KindConfig
	// KindAsset is a file copied verbatim into the output tree.
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindTemplate:
		return "template"
	case KindUtil:
		return "util"
	case KindConfig:
		return "config"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// Target reports whether files of kind k produce an artifact of their own.
func (k Kind) Target() bool {
	return k == KindContent || k == KindAsset
}

// Fingerprint identifies one version of a file's contents.
type Fingerprint struct {
	Hash    uint64
	ModTime time.Time
	Size    int64
}

// SameStat reports whether f and other were taken from an unchanged stat.
func (f Fingerprint) SameStat(modTime time.Time, size int64) bool {
	return f.ModTime.Equal(modTime) && f.Size == size
}

// Artifact is the output of one target, opaque to the build core.
type Artifact []byte
