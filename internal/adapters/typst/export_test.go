package typst

var FilterDiagnostics = filterDiagnostics
