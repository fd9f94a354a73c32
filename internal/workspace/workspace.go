// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DirName is the directory created under the target path to hold every
// artifact of a run.
const DirName = "temp123456789"

// Workspace is the directory that holds the artifacts of one run. It is the
// only component that deletes artifacts.
type Workspace struct {
	Dir string
}

// At returns the workspace under path without touching the filesystem.
func At(path string) *Workspace {
	return &Workspace{Dir: filepath.Join(filepath.Clean(path), DirName)}
}

// Prepare creates a fresh workspace directory under path. An empty leftover
// directory is removed first; a non-empty one is reused.
func Prepare(ctx context.Context, path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to access path '%s'", path)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("path '%s' is not a directory", path)
	}

	ws := At(path)
	if err := os.Remove(ws.Dir); err == nil {
		log.Ctx(ctx).Debug().Str("dir", ws.Dir).Msg("Removed leftover workspace directory")
	}

	if err := os.Mkdir(ws.Dir, 0700); err != nil && !os.IsExist(err) {
		return nil, errors.Wrapf(err, "unable to create directory '%s'", ws.Dir)
	}

	return ws, nil
}

func (ws *Workspace) BulkPath() string {
	return filepath.Join(ws.Dir, erasure.BulkFileName)
}

func (ws *Workspace) FilePath(index int) string {
	return filepath.Join(ws.Dir, erasure.SeriesFileName(index))
}

// Artifacts lists the paths a run with the given file count may have created,
// the bulk file first.
func (ws *Workspace) Artifacts(fileCount int) []string {
	paths := make([]string, 0, fileCount+1)
	paths = append(paths, ws.BulkPath())
	for i := 1; i <= fileCount; i++ {
		paths = append(paths, ws.FilePath(i))
	}
	return paths
}

// Clean deletes the bulk file, the numbered files 1..fileCount, and finally
// the workspace directory. Missing files are not an error. Every artifact is
// attempted even if some removals fail.
func (ws *Workspace) Clean(ctx context.Context, fileCount int, progress erasure.ProgressReporter) error {
	if progress == nil {
		progress = erasure.NopProgress()
	}

	failures := 0
	var firstErr error
	remove := func(path string) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("Unable to remove artifact")
			failures++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	artifacts := ws.Artifacts(max(fileCount, 0))
	remove(artifacts[0])

	progress.Start(erasure.PhaseClean)
	files := artifacts[1:]
	deciles := erasure.NewDeciles(uint64(len(files)), progress)
	for i, path := range files {
		remove(path)
		deciles.Advance(uint64(i + 1))
	}
	progress.Finish(true)

	remove(ws.Dir)

	if failures > 0 {
		return errors.Wrapf(firstErr, "unable to remove %d artifact(s)", failures)
	}
	return nil
}
