// Package discovery finds curated datasets in a raw download directory by file
// naming convention.
//
// A metadata file is named "<dataset>.meta.<curator>". Its expression files
// share the dataset prefix and end in ".processed.gz", for example
// "GSE1.GPL570.processed.gz". Each expression file resolves to an output base
// name "<dataset>.<platform>.diff.<curator>".
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	MetaMarker      = ".meta."
	ProcessedSuffix = ".processed.gz"
	DiffMarker      = ".diff."
)

// DataFile is one expression matrix belonging to a dataset.
type DataFile struct {
	Path   string
	Name   string
	Output string
}

// Dataset pairs a curator's metadata file with the dataset's expression files.
type Dataset struct {
	ID        string
	Curator   string
	MetaPath  string
	DataFiles []DataFile
}

// Scan lists datasets in rawDir ordered by metadata file name. Datasets with no
// expression file are returned with an empty DataFiles slice.
func Scan(rawDir string) ([]Dataset, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("read raw directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() || entry.Type()&os.ModeSymlink != 0 {
			names = append(names, entry.Name())
		}
	}

	var datasets []Dataset
	for _, name := range names {
		id, curator, ok := ParseMetaName(name)
		if !ok {
			continue
		}
		ds := Dataset{ID: id, Curator: curator, MetaPath: filepath.Join(rawDir, name)}
		for _, candidate := range names {
			if !isDataFileOf(candidate, id) {
				continue
			}
			ds.DataFiles = append(ds.DataFiles, DataFile{
				Path:   filepath.Join(rawDir, candidate),
				Name:   candidate,
				Output: OutputName(candidate, curator),
			})
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// ParseMetaName splits "<dataset>.meta.<curator>" into its dataset and curator.
func ParseMetaName(name string) (dataset, curator string, ok bool) {
	dataset, rest, found := strings.Cut(name, MetaMarker)
	if !found || dataset == "" {
		return "", "", false
	}
	curator, _, _ = strings.Cut(rest, MetaMarker)
	if curator == "" {
		return "", "", false
	}
	return dataset, curator, true
}

// OutputName derives the differential artifact base name for an expression file.
func OutputName(dataFile, curator string) string {
	return strings.TrimSuffix(dataFile, ProcessedSuffix) + DiffMarker + curator
}

func isDataFileOf(name, dataset string) bool {
	prefix := dataset + "."
	return len(name) >= len(prefix)+len(ProcessedSuffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, ProcessedSuffix)
}
