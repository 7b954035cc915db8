// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package frames streams pre-rendered raster frames from storage.
package frames

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/relabs-tech/holocube/internal/config"
)

var (
	// ErrNotFound means the backing file for a frame index does not exist.
	ErrNotFound = errors.New("frame not found")
	// ErrShortRead means the file held fewer bytes than one frame.
	ErrShortRead = errors.New("short frame read")
)

// BytesPerPixel is the RGB565 color depth of stored frames.
const BytesPerPixel = 2

// maxZeroReads bounds consecutive (0, nil) reads before a load gives up.
const maxZeroReads = 3

// Options describes where frames live and how they are read.
type Options struct {
	Dir       string
	Prefix    string
	Ext       string
	Count     int
	FrameSize int // bytes per frame
	ChunkSize int // bytes per storage read
}

// OptionsFrom builds Options for full-screen frames from the application config.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Dir:       cfg.FrameDir,
		Prefix:    cfg.FramePrefix,
		Ext:       cfg.FrameExt,
		Count:     cfg.FrameCount,
		FrameSize: cfg.DisplayWidth * cfg.DisplayHeight * BytesPerPixel,
		ChunkSize: cfg.FrameChunkSize,
	}
}

// Source loads frame i mod Count. It never retries; the caller decides.
type Source struct {
	storage Storage
	opts    Options
}

func NewSource(storage Storage, opts Options) *Source {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 512
	}
	if opts.Count <= 0 {
		opts.Count = 1
	}
	return &Source{storage: storage, opts: opts}
}

// Count is the length of the cyclic index range.
func (s *Source) Count() int { return s.opts.Count }

// FrameSize is the number of bytes in one frame.
func (s *Source) FrameSize() int { return s.opts.FrameSize }

// Normalize maps any index into [0, Count).
func (s *Source) Normalize(index int) int {
	n := s.opts.Count
	return ((index % n) + n) % n
}

// Path returns the file backing index, e.g. <dir>/frame007.bin.
func (s *Source) Path(index int) string {
	name := fmt.Sprintf("%s%03d%s", s.opts.Prefix, s.Normalize(index), s.opts.Ext)
	return filepath.Join(s.opts.Dir, name)
}

// LoadFrame fills dst with frame index mod Count, reading at most ChunkSize
// bytes per storage call. dst must hold at least FrameSize bytes; only the
// first FrameSize bytes are written.
func (s *Source) LoadFrame(index int, dst []byte) (int, error) {
	size := s.opts.FrameSize
	if len(dst) < size {
		return 0, fmt.Errorf("frames: destination holds %d bytes, frame needs %d", len(dst), size)
	}

	path := s.Path(index)
	f, err := s.storage.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return 0, fmt.Errorf("frames: open %s: %w", path, err)
	}
	defer f.Close()

	n, zeroReads := 0, 0
	for n < size {
		end := n + s.opts.ChunkSize
		if end > size {
			end = size
		}
		m, err := f.Read(dst[n:end])
		n += m
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("frames: read %s at offset %d: %w", path, n, err)
		}
		if m == 0 {
			zeroReads++
			if zeroReads >= maxZeroReads {
				break
			}
			continue
		}
		zeroReads = 0
	}

	if n < size {
		return n, fmt.Errorf("%w: %s: got %d of %d bytes", ErrShortRead, path, n, size)
	}
	return n, nil
}
