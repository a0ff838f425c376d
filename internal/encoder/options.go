// Package encoder pipes normalized PCM through an external MP3 encoder
// process, so helium never links encoding code (and its licensing baggage)
// directly into the binary.
package encoder

import (
	"fmt"
	"time"
)

// ChannelMode selects LAME's stereo handling.
type ChannelMode int

const (
	ChannelModeDefault ChannelMode = iota
	ChannelModeStereo
	ChannelModeJointStereo
	ChannelModeMono
)

// BitRate selects one of LAME's bit-rate strategies. Exactly one of
// Constant, Average, or Variable should be set; the zero value falls back
// to the encoder's own default.
type BitRate struct {
	Constant *int // kbps; takes precedence over Average and Variable
	Average  *int // kbps
	Variable *int // 0 (best) .. 9 (worst) quality index
}

func (b BitRate) args() []string {
	switch {
	case b.Constant != nil:
		return []string{"--cbr", "-b", fmt.Sprintf("%d", *b.Constant)}
	case b.Average != nil:
		return []string{"--abr", fmt.Sprintf("%d", *b.Average)}
	case b.Variable != nil:
		return []string{"--vbr-new", fmt.Sprintf("-V%d", *b.Variable)}
	default:
		return nil
	}
}

// Options configures the encoder process.
type Options struct {
	// Executable is the path to the LAME binary.
	Executable string

	Mode    ChannelMode
	BitRate BitRate

	// Now, if set, overrides the clock used for the year tag written by
	// --ty, so the arguments need not depend on the current date.
	Now func() time.Time
}

// Args builds the LAME command-line arguments for standard-input,
// standard-output operation.
func (o Options) Args() []string {
	var args []string

	switch o.Mode {
	case ChannelModeStereo:
		args = append(args, "-ms")
	case ChannelModeJointStereo:
		args = append(args, "-mj")
	case ChannelModeMono:
		args = append(args, "-mm")
	}

	args = append(args, o.BitRate.args()...)

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	args = append(args,
		"--ty", fmt.Sprintf("%d", now().Year()),
		"--add-id3v2",
		"--pad-id3v2",
		"--quiet",
		"-",
	)
	return args
}
