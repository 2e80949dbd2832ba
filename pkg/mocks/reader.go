// Package mocks provides hand-rolled mock implementations of the ports for
// tests.
package mocks

import (
	"image"

	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Reader is a mock implementation of ports.Reader. Without overrides it
// behaves as an open reader serving black frames up to Length.
type Reader struct {
	OpenFunc     func() error
	CloseFunc    func() error
	GetFrameFunc func(number int64) (*media.Frame, error)
	InfoFunc     func() ports.ReaderInfo
	CacheFunc    func() ports.Cache

	Width  int
	Height int
	Length int64
	FPS    media.Fraction

	// Recorded calls for verification
	Opened        bool
	Closed        bool
	GetFrameCalls []int64
}

// NewReader creates a mock reader serving black frames of the given geometry.
func NewReader(width, height int, length int64) *Reader {
	return &Reader{
		Width:  width,
		Height: height,
		Length: length,
		FPS:    media.Fraction{Num: 30, Den: 1},
		Opened: true,
	}
}

func (m *Reader) Open() error {
	m.Opened = true
	if m.OpenFunc != nil {
		return m.OpenFunc()
	}
	return nil
}

func (m *Reader) Close() error {
	m.Opened = false
	m.Closed = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Reader) IsOpen() bool {
	return m.Opened
}

func (m *Reader) GetFrame(number int64) (*media.Frame, error) {
	m.GetFrameCalls = append(m.GetFrameCalls, number)
	if m.GetFrameFunc != nil {
		return m.GetFrameFunc(number)
	}
	if !m.Opened {
		return nil, ports.ErrReaderNotOpen
	}
	if number < 1 || number > m.Length {
		return nil, ports.OutOfBoundsf(number, m.Length)
	}
	return media.NewSolidFrame(number, m.Width, m.Height, image.Black), nil
}

func (m *Reader) Info() ports.ReaderInfo {
	if m.InfoFunc != nil {
		return m.InfoFunc()
	}
	return ports.ReaderInfo{
		Width:       m.Width,
		Height:      m.Height,
		FPS:         m.FPS,
		PixelRatio:  media.Fraction{Num: 1, Den: 1},
		VideoLength: m.Length,
		Metadata:    map[string]string{},
	}
}

func (m *Reader) Cache() ports.Cache {
	if m.CacheFunc != nil {
		return m.CacheFunc()
	}
	return nil
}

var _ ports.Reader = (*Reader)(nil)
