package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"matchreport/internal/dataset"
)

// ErrNoDatasets is returned when a directory holds no CSV or XLSX datasets.
var ErrNoDatasets = errors.New("no datasets found")

// FileInfo represents information about a discovered dataset
type FileInfo struct {
	Path    string
	Name    string
	Format  dataset.Format
	Size    int64
	ModTime time.Time
}

// Discovery finds match datasets on disk
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDatasets lists the CSV and XLSX files in dir, sorted by name. Hidden
// files and spreadsheet lock files (~$name.xlsx) are skipped. With recursive
// set, subdirectories are searched too.
func (d *Discovery) FindDatasets(dir string, recursive bool) ([]FileInfo, error) {
	root := d.resolve(dir)

	var files []FileInfo
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && (!recursive || strings.HasPrefix(entry.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		fi, ok := datasetInfo(path, entry)
		if ok {
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDatasets, root)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// FindFilesByPattern finds datasets matching a glob pattern inside dir
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.resolve(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if fi, ok := datasetInfo(match, fs.FileInfoToDirEntry(info)); ok {
			files = append(files, fi)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w matching %s", ErrNoDatasets, searchPattern)
	}
	return files, nil
}

// GetLatestFile returns the most recently modified file
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, f := range files[1:] {
		if f.ModTime.After(latest.ModTime) {
			latest = f
		}
	}
	return latest, true
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func datasetInfo(path string, entry fs.DirEntry) (FileInfo, bool) {
	name := entry.Name()
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return FileInfo{}, false
	}
	format, err := dataset.DetectFormat(name)
	if err != nil {
		return FileInfo{}, false
	}
	info, err := entry.Info()
	if err != nil {
		return FileInfo{}, false
	}
	return FileInfo{
		Path:    path,
		Name:    name,
		Format:  format,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, true
}
