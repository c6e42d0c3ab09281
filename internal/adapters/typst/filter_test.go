package typst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/tola/internal/adapters/typst"
)

func TestFilterDiagnostics(t *testing.T) {
	stderr := "warning: html export is under active development and incomplete\n" +
		"  = hint: its behaviour may change at any time\n" +
		"  = hint: do not rely on this feature for production use cases\n" +
		"warning: elem `image` was ignored during html export\n" +
		"   ┌─ content/a.typ:3:1\n" +
		"error: unknown variable: titel\n" +
		"   ┌─ content/a.typ:5:2\n" +
		"   = hint: did you mean title?\n"

	diag, warnings := typst.FilterDiagnostics(stderr)
	assert.Equal(t, "error: unknown variable: titel\n   ┌─ content/a.typ:5:2", diag)
	assert.Empty(t, warnings)
}

func TestFilterDiagnostics_KeepsOtherWarnings(t *testing.T) {
	diag, warnings := typst.FilterDiagnostics("warning: unused import\n  ┌─ a.typ:1:1\n")
	assert.Equal(t, "warning: unused import\n  ┌─ a.typ:1:1", diag)
	assert.Equal(t, []string{"warning: unused import"}, warnings)
}

func TestFilterDiagnostics_Empty(t *testing.T) {
	diag, warnings := typst.FilterDiagnostics("")
	assert.Empty(t, diag)
	assert.Empty(t, warnings)
}
