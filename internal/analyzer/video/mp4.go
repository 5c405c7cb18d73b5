package video

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errNotMP4 = errors.New("not an ISO BMFF (MP4) stream")

// mp4Info holds container metadata pulled from the moov box tree.
type mp4Info struct {
	DurationSeconds float64
	Width           int
	Height          int
	FPS             float64
	HasAudio        bool
}

// containerBoxes are boxes whose payload is a sequence of child boxes.
var containerBoxes = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
}

type box struct {
	kind string
	body []byte
}

// parseBoxes splits a byte range into top-level boxes.
func parseBoxes(b []byte) ([]box, error) {
	var boxes []box
	for off := 0; off < len(b); {
		if off+8 > len(b) {
			return nil, fmt.Errorf("truncated box header at offset %d", off)
		}
		size := int(binary.BigEndian.Uint32(b[off : off+4]))
		kind := string(b[off+4 : off+8])
		hdr := 8
		if size == 1 {
			// 64-bit largesize variant.
			if off+16 > len(b) {
				return nil, fmt.Errorf("truncated large box header at offset %d", off)
			}
			size64 := binary.BigEndian.Uint64(b[off+8 : off+16])
			if size64 > uint64(len(b)-off) {
				return nil, fmt.Errorf("box %q overruns buffer", kind)
			}
			size = int(size64)
			hdr = 16
		}
		if size == 0 {
			size = len(b) - off
		}
		if size < hdr || off+size > len(b) {
			return nil, fmt.Errorf("box %q has invalid size %d", kind, size)
		}
		boxes = append(boxes, box{kind: kind, body: b[off+hdr : off+size]})
		off += size
	}
	return boxes, nil
}

// parseMP4 walks the box tree and extracts presentation duration, video
// track dimensions, frame rate, and audio-track presence.
func parseMP4(b []byte) (*mp4Info, error) {
	top, err := parseBoxes(b)
	if err != nil {
		return nil, err
	}

	var moov []byte
	sawFtyp := false
	for _, bx := range top {
		switch bx.kind {
		case "ftyp":
			sawFtyp = true
		case "moov":
			moov = bx.body
		}
	}
	if !sawFtyp || moov == nil {
		return nil, errNotMP4
	}

	info := &mp4Info{}
	if err := walkMoov(moov, info); err != nil {
		return nil, err
	}
	return info, nil
}

func walkMoov(moov []byte, info *mp4Info) error {
	boxes, err := parseBoxes(moov)
	if err != nil {
		return err
	}
	for _, bx := range boxes {
		switch bx.kind {
		case "mvhd":
			d, err := parseMvhd(bx.body)
			if err != nil {
				return err
			}
			info.DurationSeconds = d
		case "trak":
			if err := walkTrak(bx.body, info); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseMvhd returns the presentation duration in seconds.
func parseMvhd(b []byte) (float64, error) {
	if len(b) < 1 {
		return 0, errors.New("empty mvhd box")
	}
	switch version := b[0]; version {
	case 0:
		if len(b) < 20 {
			return 0, errors.New("mvhd v0 box too short")
		}
		timescale := binary.BigEndian.Uint32(b[12:16])
		duration := binary.BigEndian.Uint32(b[16:20])
		if timescale == 0 {
			return 0, errors.New("mvhd timescale is zero")
		}
		return float64(duration) / float64(timescale), nil
	case 1:
		if len(b) < 32 {
			return 0, errors.New("mvhd v1 box too short")
		}
		timescale := binary.BigEndian.Uint32(b[20:24])
		duration := binary.BigEndian.Uint64(b[24:32])
		if timescale == 0 {
			return 0, errors.New("mvhd timescale is zero")
		}
		return float64(duration) / float64(timescale), nil
	default:
		return 0, fmt.Errorf("unsupported mvhd version %d", version)
	}
}

// trakInfo accumulates per-track fields as the trak subtree is walked.
type trakInfo struct {
	handler       string
	width, height int
	mdhdTimescale uint32
	mdhdDuration  uint64
	sampleCount   uint32
}

func walkTrak(trak []byte, info *mp4Info) error {
	var t trakInfo
	if err := collectTrak(trak, &t); err != nil {
		return err
	}

	switch t.handler {
	case "vide":
		info.Width = t.width
		info.Height = t.height
		if t.mdhdTimescale > 0 && t.mdhdDuration > 0 && t.sampleCount > 0 {
			trackSeconds := float64(t.mdhdDuration) / float64(t.mdhdTimescale)
			info.FPS = float64(t.sampleCount) / trackSeconds
		}
	case "soun":
		info.HasAudio = true
	}
	return nil
}

func collectTrak(b []byte, t *trakInfo) error {
	boxes, err := parseBoxes(b)
	if err != nil {
		return err
	}
	for _, bx := range boxes {
		switch {
		case bx.kind == "tkhd":
			t.width, t.height = parseTkhdDimensions(bx.body)
		case bx.kind == "hdlr":
			if len(bx.body) >= 12 {
				t.handler = string(bx.body[8:12])
			}
		case bx.kind == "mdhd":
			parseMdhd(bx.body, t)
		case bx.kind == "stsz":
			if len(bx.body) >= 12 {
				t.sampleCount = binary.BigEndian.Uint32(bx.body[8:12])
			}
		case containerBoxes[bx.kind]:
			if err := collectTrak(bx.body, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseTkhdDimensions reads the 16.16 fixed-point width/height at the tail
// of the tkhd box. Returns zeros when the box is malformed.
func parseTkhdDimensions(b []byte) (int, int) {
	if len(b) < 1 {
		return 0, 0
	}
	var off int
	switch b[0] {
	case 0:
		off = 76
	case 1:
		off = 88
	default:
		return 0, 0
	}
	if len(b) < off+8 {
		return 0, 0
	}
	w := binary.BigEndian.Uint32(b[off : off+4]) >> 16
	h := binary.BigEndian.Uint32(b[off+4 : off+8]) >> 16
	return int(w), int(h)
}

func parseMdhd(b []byte, t *trakInfo) {
	if len(b) < 1 {
		return
	}
	switch b[0] {
	case 0:
		if len(b) >= 20 {
			t.mdhdTimescale = binary.BigEndian.Uint32(b[12:16])
			t.mdhdDuration = uint64(binary.BigEndian.Uint32(b[16:20]))
		}
	case 1:
		if len(b) >= 32 {
			t.mdhdTimescale = binary.BigEndian.Uint32(b[20:24])
			t.mdhdDuration = binary.BigEndian.Uint64(b[24:32])
		}
	}
}
