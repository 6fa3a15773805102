// Package fileutil finds inspection report files on disk.
//
// ScanDirectory walks a directory and returns the absolute paths of matching
// files in sorted order, so a batch of reports is always imported in the same
// sequence. Hidden directories and any names in ScanOptions.ExcludeDirs are
// skipped. Errors on individual entries are collected in ScanResult.Errors and
// the walk continues; only a missing root or a bad pattern fails the scan.
package fileutil
