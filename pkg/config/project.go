package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/user/playcore/pkg/adapters/imagereader"
	"github.com/user/playcore/pkg/adapters/patternreader"
	"github.com/user/playcore/pkg/cache"
	"github.com/user/playcore/pkg/effects"
	"github.com/user/playcore/pkg/media"
	"github.com/user/playcore/pkg/ports"
	"github.com/user/playcore/pkg/timeline"
)

// ProjectSource names a clip's frame source.
type ProjectSource struct {
	Type   string `json:"type"`
	Path   string `json:"path"`
	Length int64  `json:"length"`
}

// ProjectClip places one source on the timeline with an effect chain.
type ProjectClip struct {
	Source   ProjectSource     `json:"source"`
	Position int64             `json:"position"`
	Start    int64             `json:"start"`
	End      int64             `json:"end"`
	Effects  []json.RawMessage `json:"effects"`
}

// Project is the JSON description of a timeline.
type Project struct {
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	FPS        media.Fraction `json:"fps"`
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Clips      []ProjectClip  `json:"clips"`
}

// LoadProject parses a project JSON file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrInvalidJSON, err)
	}
	if p.Width <= 0 || p.Height <= 0 || p.FPS.Num <= 0 || p.FPS.Den <= 0 {
		return nil, fmt.Errorf("%w: project requires width, height and fps", ports.ErrInvalidJSON)
	}
	return &p, nil
}

// newSource builds a clip reader from a project source entry.
func (p *Project) newSource(src ProjectSource) (ports.Reader, error) {
	length := src.Length
	if length <= 0 {
		length = 1
	}
	switch src.Type {
	case "PatternReader":
		return patternreader.New(src.Path, p.Width, p.Height, p.FPS, length), nil
	case "ImageReader":
		return imagereader.New(src.Path), nil
	default:
		return nil, fmt.Errorf("%w: unknown source type %q", ports.ErrInvalidJSON, src.Type)
	}
}

// Build assembles the timeline with a playback cache of the given budget.
func (p *Project) Build(cacheBytes, cacheMaxFrames int64) (*timeline.Timeline, error) {
	c := cache.NewMemory(cacheBytes, cacheMaxFrames)
	t := timeline.New(p.Width, p.Height, p.FPS, p.SampleRate, p.Channels, c)

	for i, pc := range p.Clips {
		reader, err := p.newSource(pc.Source)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		clip := &timeline.Clip{
			Reader:   reader,
			Position: pc.Position,
			Start:    pc.Start,
			End:      pc.End,
		}
		if clip.Start < 1 {
			clip.Start = 1
		}
		if clip.End < clip.Start {
			clip.End = reader.Info().VideoLength
		}
		for j, raw := range pc.Effects {
			effect, err := effects.FromJSON(raw)
			if err != nil {
				return nil, fmt.Errorf("clip %d effect %d: %w", i, j, err)
			}
			clip.Effects = append(clip.Effects, effect)
		}
		t.AddClip(clip)
	}
	return t, nil
}
