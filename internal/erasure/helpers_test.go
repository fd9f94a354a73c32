// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
)

// cappedStorage creates real files but refuses writes once a byte budget
// shared by all of its files is used up, the way a full filesystem does.
type cappedStorage struct {
	mu        sync.Mutex
	remaining int64
}

func (s *cappedStorage) Create(path string) (File, error) {
	file, err := CreateFile(path)
	if err != nil {
		return nil, err
	}
	return &cappedFile{File: file, storage: s, path: path}, nil
}

type cappedFile struct {
	File
	storage *cappedStorage
	path    string
}

func (f *cappedFile) Write(p []byte) (int, error) {
	f.storage.mu.Lock()
	defer f.storage.mu.Unlock()

	if int64(len(p)) <= f.storage.remaining {
		n, err := f.File.Write(p)
		f.storage.remaining -= int64(n)
		return n, err
	}

	n, err := f.File.Write(p[:f.storage.remaining])
	f.storage.remaining -= int64(n)
	if err != nil {
		return n, err
	}
	return n, &os.PathError{Op: "write", Path: f.path, Err: syscall.ENOSPC}
}

// failingStorage fails the write of the nth file created, with a plain I/O
// error, or fails every write when failAll is set.
type failingStorage struct {
	mu      sync.Mutex
	created int
	failAt  int
	failAll bool
	err     error
}

func (s *failingStorage) Create(path string) (File, error) {
	file, err := CreateFile(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	fail := s.failAll || s.created == s.failAt
	return &failingFile{File: file, fail: fail, err: s.err}, nil
}

type failingFile struct {
	File
	fail bool
	err  error
}

func (f *failingFile) Write(p []byte) (int, error) {
	if f.fail {
		return 0, f.err
	}
	return f.File.Write(p)
}

// closeFailingFile writes normally but fails to close.
type closeFailingFile struct {
	File
}

func (f *closeFailingFile) Close() error {
	f.File.Close()
	return errors.New("close failed")
}

func createCloseFailing(path string) (File, error) {
	file, err := CreateFile(path)
	if err != nil {
		return nil, err
	}
	return &closeFailingFile{File: file}, nil
}

// recordingProgress records every marker as a string.
type recordingProgress struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingProgress) Start(phase string) {
	p.record("start:" + phase)
}

func (p *recordingProgress) Percent(percent int) {
	p.record(fmt.Sprintf("%d%%", percent))
}

func (p *recordingProgress) Gigabytes(count int) {
	p.record(fmt.Sprintf("%dGb", count))
}

func (p *recordingProgress) Finish(complete bool) {
	p.record(fmt.Sprintf("finish:%v", complete))
}

func (p *recordingProgress) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingProgress) percents() []string {
	var result []string
	for _, e := range p.events {
		if e[len(e)-1] == '%' {
			result = append(result, e)
		}
	}
	return result
}
