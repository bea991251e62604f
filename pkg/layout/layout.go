// Package layout infers the output directory structure for batch runs from
// the location of the input image folder inside a dataset tree.
package layout

import (
	"path/filepath"
	"strings"
)

// OutputDirs holds the derived artifact roots for one batch run: predicted
// images under Images, per-image label text files under Labels.
type OutputDirs struct {
	Images string
	Labels string
}

// Derive computes the output roots for an input image folder.
//
// When a path segment is literally named "images", everything before it is
// the dataset root and everything after it is kept as the relative tail:
// root/images/tail becomes root/runs/tail and root/labels/tail. Without the
// sentinel, the final segment is placed under "runs" and "labels" two levels
// up: .../a/b/leaf becomes .../a/runs/leaf and .../a/labels/leaf.
//
// Pure path computation; creating the directories is the caller's job.
func Derive(folder string) OutputDirs {
	cleaned := filepath.Clean(folder)
	sep := string(filepath.Separator)
	parts := strings.Split(cleaned, sep)

	for i, part := range parts {
		if part != "images" {
			continue
		}
		root := strings.Join(parts[:i], sep)
		tail := filepath.Join(parts[i+1:]...)
		return OutputDirs{
			Images: filepath.Join(root, "runs", tail),
			Labels: filepath.Join(root, "labels", tail),
		}
	}

	leaf := filepath.Base(cleaned)
	grandparent := filepath.Dir(filepath.Dir(cleaned))
	return OutputDirs{
		Images: filepath.Join(grandparent, "runs", leaf),
		Labels: filepath.Join(grandparent, "labels", leaf),
	}
}
