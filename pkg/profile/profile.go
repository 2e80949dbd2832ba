// Package profile describes output formats: resolution, frame rate, aspect
// ratios and the spherical flag, with canonical names used to group and sort
// them.
package profile

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/user/playcore/pkg/media"
)

// Info holds the raw fields of a profile.
type Info struct {
	Description  string         `json:"description"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	FPS          media.Fraction `json:"fps"`
	PixelRatio   media.Fraction `json:"pixel_ratio"`
	DisplayRatio media.Fraction `json:"display_ratio"`
	Interlaced   bool           `json:"interlaced_frame"`
	Spherical    bool           `json:"spherical"`
}

// Profile is a named output format.
type Profile struct {
	Info Info `json:"info"`
}

// LoadFromFile parses a key/value profile file.
//
// Recognised keys: description, frame_rate_num, frame_rate_den, width,
// height, progressive, sample_aspect_num, sample_aspect_den,
// display_aspect_num, display_aspect_den, spherical. Unknown keys are
// ignored so newer files stay loadable.
func LoadFromFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	p := &Profile{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "description":
			p.Info.Description = value
		case "frame_rate_num":
			p.Info.FPS.Num, _ = strconv.Atoi(value)
		case "frame_rate_den":
			p.Info.FPS.Den, _ = strconv.Atoi(value)
		case "width":
			p.Info.Width, _ = strconv.Atoi(value)
		case "height":
			p.Info.Height, _ = strconv.Atoi(value)
		case "progressive":
			progressive, _ := strconv.Atoi(value)
			p.Info.Interlaced = progressive == 0
		case "sample_aspect_num":
			p.Info.PixelRatio.Num, _ = strconv.Atoi(value)
		case "sample_aspect_den":
			p.Info.PixelRatio.Den, _ = strconv.Atoi(value)
		case "display_aspect_num":
			p.Info.DisplayRatio.Num, _ = strconv.Atoi(value)
		case "display_aspect_den":
			p.Info.DisplayRatio.Den, _ = strconv.Atoi(value)
		case "spherical":
			spherical, _ := strconv.Atoi(value)
			p.Info.Spherical = spherical != 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return p, nil
}

// Save writes the profile back in the same key/value format LoadFromFile
// consumes.
func (p *Profile) Save(path string) error {
	progressive := 1
	if p.Info.Interlaced {
		progressive = 0
	}
	spherical := 0
	if p.Info.Spherical {
		spherical = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "description=%s\n", p.Info.Description)
	fmt.Fprintf(&b, "frame_rate_num=%d\n", p.Info.FPS.Num)
	fmt.Fprintf(&b, "frame_rate_den=%d\n", p.Info.FPS.Den)
	fmt.Fprintf(&b, "width=%d\n", p.Info.Width)
	fmt.Fprintf(&b, "height=%d\n", p.Info.Height)
	fmt.Fprintf(&b, "progressive=%d\n", progressive)
	fmt.Fprintf(&b, "sample_aspect_num=%d\n", p.Info.PixelRatio.Num)
	fmt.Fprintf(&b, "sample_aspect_den=%d\n", p.Info.PixelRatio.Den)
	fmt.Fprintf(&b, "display_aspect_num=%d\n", p.Info.DisplayRatio.Num)
	fmt.Fprintf(&b, "display_aspect_den=%d\n", p.Info.DisplayRatio.Den)
	fmt.Fprintf(&b, "spherical=%d\n", spherical)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// scanType returns "p" for progressive profiles and "i" for interlaced.
func (p *Profile) scanType() string {
	if p.Info.Interlaced {
		return "i"
	}
	return "p"
}

// fpsHundredths returns the frame rate compressed into at most four digits:
// whole fps stay as-is, fractional rates are expressed in hundredths
// (30000/1001 → 2997).
func (p *Profile) fpsHundredths() int {
	if p.Info.FPS.Den == 1 {
		return p.Info.FPS.Num
	}
	if p.Info.FPS.Den == 0 {
		return 0
	}
	return int(p.Info.FPS.ToFloat()*100 + 0.5)
}

// fpsLabel formats the frame rate for display names: "24" or "29.97".
func (p *Profile) fpsLabel() string {
	if p.Info.FPS.Den == 1 {
		return strconv.Itoa(p.Info.FPS.Num)
	}
	return strconv.FormatFloat(p.Info.FPS.ToFloat(), 'f', 2, 64)
}

// Key returns the canonical identity string with zero-padded fixed-width
// fields: "01280x0720p0024_16-09", with a "_360" suffix for spherical
// profiles. Sorting keys as strings does not reproduce the Less order.
func (p *Profile) Key() string {
	key := fmt.Sprintf("%05dx%04d%s%04d_%02d-%02d",
		p.Info.Width, p.Info.Height, p.scanType(), p.fpsHundredths(),
		p.Info.DisplayRatio.Num, p.Info.DisplayRatio.Den)
	if p.Info.Spherical {
		key += "_360"
	}
	return key
}

// ShortName returns a compact display name, e.g. "1920x1080i29.97".
func (p *Profile) ShortName() string {
	name := fmt.Sprintf("%dx%d%s%s", p.Info.Width, p.Info.Height, p.scanType(), p.fpsLabel())
	if p.Info.Spherical {
		name += " 360°"
	}
	return name
}

// LongName returns a verbose display name, e.g.
// "1280x720p @ 24 fps (16:9)".
func (p *Profile) LongName() string {
	name := fmt.Sprintf("%dx%d%s @ %s fps (%d:%d)",
		p.Info.Width, p.Info.Height, p.scanType(), p.fpsLabel(),
		p.Info.DisplayRatio.Num, p.Info.DisplayRatio.Den)
	if p.Info.Spherical {
		name += " 360°"
	}
	return name
}

// LongNameWithDesc appends the description to LongName.
func (p *Profile) LongNameWithDesc() string {
	return p.LongName() + " " + p.Info.Description
}

// Equal reports whether two profiles share every ordering field.
func (p *Profile) Equal(other *Profile) bool {
	return p.Info.Width == other.Info.Width &&
		p.Info.Height == other.Info.Height &&
		p.Info.Interlaced == other.Info.Interlaced &&
		p.Info.FPS == other.Info.FPS &&
		p.Info.DisplayRatio == other.Info.DisplayRatio
}

// Less orders profiles lexicographically on
// (width, height, interlaced, fps, display ratio).
func (p *Profile) Less(other *Profile) bool {
	if p.Info.Width != other.Info.Width {
		return p.Info.Width < other.Info.Width
	}
	if p.Info.Height != other.Info.Height {
		return p.Info.Height < other.Info.Height
	}
	if p.Info.Interlaced != other.Info.Interlaced {
		return !p.Info.Interlaced
	}
	pf, of := p.Info.FPS.ToFloat(), other.Info.FPS.ToFloat()
	if pf != of {
		return pf < of
	}
	return p.Info.DisplayRatio.ToFloat() < other.Info.DisplayRatio.ToFloat()
}

// Sort orders a profile slice in place by Less.
func Sort(profiles []*Profile) {
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Less(profiles[j])
	})
}
