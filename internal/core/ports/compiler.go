package ports

import (
	"context"

	"go.trai.ch/tola/internal/core/domain"
)

// CompileRequest is the input of one page compilation.
type CompileRequest struct {
	// Path is the absolute path of the content file.
	Path string
	// Layout is the site the page belongs to.
	Layout domain.Layout
	// Sources and Resources are the caches the compiler may read through.
	Sources   ContentCache
	Resources ResourceCache
}

// CompileResult is the output of a successful compilation.
type CompileResult struct {
	Artifact domain.Artifact
	// Includes are the absolute paths of every file the compile read, the page excluded.
	Includes []string
	Warnings []string
}

// Compiler turns one content file into an artifact.
//
//go:generate mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Compile returns a CompileError build error carrying the compiler's
	// diagnostic verbatim when the document does not compile.
	Compile(ctx context.Context, req CompileRequest) (CompileResult, error)
}
