// Package mp4writer muxes rendered frames into an MP4 container. Frames are
// stored as Motion-JPEG samples, and spherical outputs carry the Spherical
// Video V1 uuid metadata box so downstream readers surface the orientation
// tags.
package mp4writer

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
)

// Writer implements ports.Writer on top of mp4ff.
//
// Lifecycle: SetVideoOptions → PrepareStreams → optional AddSphericalMetadata
// → Open → WriteFrame… → Close. The container is assembled in memory and
// flushed to disk on Close.
type Writer struct {
	mu sync.Mutex

	path    string
	quality int

	width  int
	height int
	fps    media.Fraction

	prepared  bool
	opened    bool
	spherical *sphericalMeta
	samples   [][]byte
}

// New creates a writer targeting the given file path.
func New(path string, quality int) *Writer {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Writer{path: path, quality: quality}
}

// SetVideoOptions implements ports.Writer.
func (w *Writer) SetVideoOptions(width, height int, fps media.Fraction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prepared {
		return fmt.Errorf("video options must be set before PrepareStreams")
	}
	if width <= 0 || height <= 0 || fps.Num <= 0 || fps.Den <= 0 {
		return fmt.Errorf("invalid video options %dx%d @ %s", width, height, fps)
	}
	w.width, w.height, w.fps = width, height, fps
	return nil
}

// PrepareStreams implements ports.Writer.
func (w *Writer) PrepareStreams() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.width == 0 {
		return fmt.Errorf("no video options set")
	}
	w.prepared = true
	return nil
}

// AddSphericalMetadata implements ports.Writer. Valid only between
// PrepareStreams and Open.
func (w *Writer) AddSphericalMetadata(projection string, yaw, pitch, roll float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.prepared {
		return fmt.Errorf("AddSphericalMetadata requires PrepareStreams first")
	}
	if w.opened {
		return fmt.Errorf("AddSphericalMetadata must precede Open")
	}
	w.spherical = &sphericalMeta{
		Projection: projection,
		Yaw:        yaw,
		Pitch:      pitch,
		Roll:       roll,
	}
	return nil
}

// Open implements ports.Writer.
func (w *Writer) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.prepared {
		return fmt.Errorf("PrepareStreams must precede Open")
	}
	w.opened = true
	return nil
}

// WriteFrame implements ports.Writer.
func (w *Writer) WriteFrame(frame *media.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.opened {
		return fmt.Errorf("writer is not open")
	}
	if frame == nil || frame.Image == nil {
		return fmt.Errorf("frame %d has no image", frameNumber(frame))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("encode frame %d: %w", frame.Number, err)
	}
	w.samples = append(w.samples, buf.Bytes())
	return nil
}

func frameNumber(f *media.Frame) int64 {
	if f == nil {
		return 0
	}
	return f.Number
}

// Close implements ports.Writer: assembles the container and writes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.opened {
		return nil
	}
	w.opened = false

	data, err := w.buildMP4()
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// buildMP4 lays the container out as ftyp, moov, the optional spherical uuid
// box, then one fragment holding every sample.
func (w *Writer) buildMP4() ([]byte, error) {
	if len(w.samples) == 0 {
		return nil, fmt.Errorf("no frames to write")
	}

	timescale := uint32(w.fps.Num) * 1000
	sampleDur := uint32(w.fps.Den) * 1000
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")

	trak := init.Moov.Trak
	btrt := &mp4.BtrtBox{AvgBitrate: 8 * 1000 * 1000}
	entry := mp4.CreateVisualSampleEntryBox("mp4v", uint16(w.width), uint16(w.height), btrt)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(w.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(w.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}
	var decodeTime uint64
	for _, sample := range w.samples {
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(sample)),
				Dur:   sampleDur,
			},
			DecodeTime: decodeTime,
			Data:       sample,
		})
		decodeTime += uint64(sampleDur)
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if w.spherical != nil {
		if err := w.spherical.encodeBox(&buf); err != nil {
			return nil, fmt.Errorf("encode spherical metadata: %w", err)
		}
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

var _ ports.Writer = (*Writer)(nil)
