// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mediainfo inspects supplementary video files with ffprobe and
// reports their stream parameters as CSV rows for the proceedings team's
// spot checks. Files are expected to carry exactly one audio and one video
// stream.
package mediainfo

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
)

const binFfprobe = "ffprobe"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunOutput(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunOutput(name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Prober runs ffprobe against media files.
type Prober struct {
	exec executor
}

// NewProber returns a Prober backed by the local ffprobe binary.
func NewProber() *Prober {
	return &Prober{exec: &osExecutor{}}
}

// Available reports whether ffprobe exists on PATH.
func (p *Prober) Available() bool {
	_, err := p.exec.LookPath(binFfprobe)
	return err == nil
}

// ffprobe JSON structures.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type probeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Info holds the inspected parameters of one media file.
type Info struct {
	Name       string
	Duration   string
	Container  string
	VideoCodec string
	Width      int
	Height     int
	FrameRate  string
	AudioCodec string
	SampleRate string
	Channels   int
}

// Probe inspects one file. It is an error for the file to carry more than
// one audio or more than one video stream.
func (p *Prober) Probe(path string) (Info, error) {
	out, err := p.exec.RunOutput(binFfprobe,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return Info{}, fmt.Errorf("parsing ffprobe output for %s: %w", path, err)
	}

	info := Info{Name: filepath.Base(path)}

	var audio, video *probeStream
	for i := range probed.Streams {
		s := &probed.Streams[i]
		switch s.CodecType {
		case "audio":
			if audio != nil {
				return Info{}, fmt.Errorf("%s: not exactly one audio and one video stream", path)
			}
			audio = s
		case "video":
			if video != nil {
				return Info{}, fmt.Errorf("%s: not exactly one audio and one video stream", path)
			}
			video = s
		}
	}

	if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.Duration = strconv.Itoa(int(d))
	}
	info.Container = probed.Format.Tags["major_brand"]
	if info.Container == "" {
		info.Container = "unknown"
	}

	if video != nil {
		info.VideoCodec = video.CodecName
		info.Width = video.Width
		info.Height = video.Height
		info.FrameRate = video.RFrameRate
	}
	if audio != nil {
		info.AudioCodec = audio.CodecName
		info.SampleRate = audio.SampleRate
		info.Channels = audio.Channels
	}
	return info, nil
}

// csvHeader is the column order of the report.
var csvHeader = []string{
	"name", "duration", "container format", "video codec", "width", "height",
	"frame rate", "audio codec", "sample rate", "channels",
}

func (i Info) csvRow() []string {
	return []string{
		i.Name, i.Duration, i.Container, i.VideoCodec,
		strconv.Itoa(i.Width), strconv.Itoa(i.Height), i.FrameRate,
		i.AudioCodec, i.SampleRate, strconv.Itoa(i.Channels),
	}
}

// CheckBatch probes every file and writes a CSV report to w. Per-file
// failures become error rows; the batch continues.
func CheckBatch(p *Prober, paths []string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, path := range paths {
		info, err := p.Probe(path)
		if err != nil {
			row := make([]string, len(csvHeader))
			row[0] = filepath.Base(path)
			row[1] = fmt.Sprintf("Error - %v", err)
			cw.Write(row)
			continue
		}
		if err := cw.Write(info.csvRow()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
