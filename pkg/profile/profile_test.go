package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const profile720p24 = `description=HD 720p 24 fps
frame_rate_num=24
frame_rate_den=1
width=1280
height=720
progressive=1
sample_aspect_num=1
sample_aspect_den=1
display_aspect_num=16
display_aspect_den=9
`

const profile1080i2997 = `description=HD 1080i 29.97 fps
frame_rate_num=30000
frame_rate_den=1001
width=1920
height=1080
progressive=0
sample_aspect_num=1
sample_aspect_den=1
display_aspect_num=16
display_aspect_den=9
spherical=0
`

func TestLoadFromFile(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile720p24))
	require.NoError(t, err)

	assert.Equal(t, "HD 720p 24 fps", p.Info.Description)
	assert.Equal(t, 1280, p.Info.Width)
	assert.Equal(t, 720, p.Info.Height)
	assert.Equal(t, 24, p.Info.FPS.Num)
	assert.Equal(t, 1, p.Info.FPS.Den)
	assert.Equal(t, 16, p.Info.DisplayRatio.Num)
	assert.Equal(t, 9, p.Info.DisplayRatio.Den)
	assert.Equal(t, 1, p.Info.PixelRatio.Num)
	assert.Equal(t, 1, p.Info.PixelRatio.Den)
	assert.False(t, p.Info.Interlaced)
	assert.False(t, p.Info.Spherical)
}

func TestNames24fps(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile720p24))
	require.NoError(t, err)

	assert.Equal(t, "01280x0720p0024_16-09", p.Key())
	assert.Equal(t, "1280x720p24", p.ShortName())
	assert.Equal(t, "1280x720p @ 24 fps (16:9)", p.LongName())
	assert.Equal(t, "1280x720p @ 24 fps (16:9) HD 720p 24 fps", p.LongNameWithDesc())
}

func TestNames2997fps(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile1080i2997))
	require.NoError(t, err)

	assert.True(t, p.Info.Interlaced)
	assert.Equal(t, "01920x1080i2997_16-09", p.Key())
	assert.Equal(t, "1920x1080i29.97", p.ShortName())
	assert.Equal(t, "1920x1080i @ 29.97 fps (16:9)", p.LongName())
}

func TestSphericalKeySuffix(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile720p24+"spherical=1\n"))
	require.NoError(t, err)

	assert.True(t, p.Info.Spherical)
	assert.Equal(t, "01280x0720p0024_16-09_360", p.Key())
}

func TestSaveRoundTrip(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile1080i2997))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved")
	require.NoError(t, p.Save(out))

	back, err := LoadFromFile(out)
	require.NoError(t, err)
	assert.Equal(t, p.Info, back.Info)
}

func TestJSONRoundTrip(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile720p24+"spherical=1\n"))
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back Profile
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.Info, back.Info)
}

func TestOrdering(t *testing.T) {
	mk := func(w, h int, interlaced bool, num, den int) *Profile {
		p := &Profile{}
		p.Info.Width = w
		p.Info.Height = h
		p.Info.Interlaced = interlaced
		p.Info.FPS.Num = num
		p.Info.FPS.Den = den
		p.Info.DisplayRatio.Num = 16
		p.Info.DisplayRatio.Den = 9
		return p
	}

	small := mk(1280, 720, false, 30, 1)
	progressive := mk(1920, 1080, false, 30000, 1001)
	interlaced := mk(1920, 1080, true, 30000, 1001)
	fast := mk(1920, 1080, false, 60, 1)

	profiles := []*Profile{fast, interlaced, progressive, small}
	Sort(profiles)

	assert.Same(t, small, profiles[0])
	assert.Same(t, progressive, profiles[1])
	assert.Same(t, fast, profiles[2])
	assert.Same(t, interlaced, profiles[3])

	assert.True(t, small.Less(progressive))
	assert.False(t, progressive.Less(small))
	assert.True(t, progressive.Equal(&Profile{Info: progressive.Info}))
}

func TestUnknownKeysIgnored(t *testing.T) {
	p, err := LoadFromFile(writeProfile(t, profile720p24+"colorspace=709\n# comment\n"))
	require.NoError(t, err)
	assert.Equal(t, 1280, p.Info.Width)
}
