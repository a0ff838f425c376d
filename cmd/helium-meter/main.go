// Command helium-meter renders live per-channel amplitude and gain meters
// for a normalizer fed from standard input, using fyne.io/fyne/v2.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/meinders/helium/internal/config"
	"github.com/meinders/helium/internal/normalize"
	"github.com/meinders/helium/internal/rollmax"
	"github.com/meinders/helium/internal/window"
)

// channelMeter groups one channel's amplitude bar, gain bar, and a
// peak-hold display backed by the same rolling-window/rolling-maximum pair
// the normalizer itself uses, so recent peaks decay off the display once
// they scroll out of the hold window.
type channelMeter struct {
	amplitude *widget.ProgressBar
	gain      *widget.ProgressBar
	peakLabel *widget.Label
	peakWin   *window.Window
	peak      *rollmax.Max[int]
}

// pushPeak feeds one more amplitude sample (scaled to an integer per-mille
// value) into the peak-hold window and returns the current peak.
func (m *channelMeter) pushPeak(amplitude float64) int {
	v := int(amplitude * 1000)
	wasFull := m.peakWin.IsFull()
	ejected := m.peakWin.Add(v)
	if wasFull {
		m.peak.Remove(ejected)
	}
	m.peak.Add(v)
	return m.peak.Get()
}

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("helium-meter: loading config: %v", err)
	}
	if cfg.Normalize == nil {
		log.Fatalf("helium-meter: config has no [normalize] section to monitor")
	}

	pcmFormat, err := cfg.AudioFormat.PCMFormat()
	if err != nil {
		log.Fatalf("helium-meter: %v", err)
	}

	a := app.NewWithID("nl.meinders.helium.meter")
	w := a.NewWindow("helium meter")

	meters := make([]*channelMeter, cfg.AudioFormat.Channels)
	rows := make([]fyne.CanvasObject, 0, cfg.AudioFormat.Channels)
	// Peak-hold decays over roughly two seconds, independent of the
	// normalizer's own look-ahead window. The window counts amplitude
	// events, which arrive about 30 times a second per channel.
	peakWindow := 2 * 30
	for i := range meters {
		m := &channelMeter{
			amplitude: widget.NewProgressBar(),
			gain:      widget.NewProgressBar(),
			peakLabel: widget.NewLabel("peak: 0%"),
			peakWin:   window.New(peakWindow),
			peak:      rollmax.New[int](peakWindow),
		}
		m.gain.Max = cfg.Normalize.MaximumGain
		meters[i] = m
		rows = append(rows, container.NewVBox(
			widget.NewLabel(fmt.Sprintf("channel %d", i)),
			m.amplitude,
			m.gain,
			m.peakLabel,
		))
	}
	w.SetContent(container.NewVBox(rows...))

	normalizer, err := normalize.New(io.Discard, normalize.Config{
		Format:          pcmFormat,
		Channels:        cfg.AudioFormat.Channels,
		SampleRate:      cfg.AudioFormat.SampleRate,
		WindowSeconds:   cfg.Normalize.WindowSize,
		MaxGain:         cfg.Normalize.MaximumGain,
		PerChannel:      cfg.Normalize.PerChannel,
		DCOffsetEnabled: cfg.Normalize.DCOffset,
	})
	if err != nil {
		log.Fatalf("helium-meter: starting normalizer: %v", err)
	}

	normalizer.AddAmplitudeListener(func(channel int, amplitude float64) {
		m := meters[channel]
		peak := m.pushPeak(amplitude)
		fyne.Do(func() {
			m.amplitude.SetValue(amplitude)
			m.peakLabel.SetText(fmt.Sprintf("peak: %.1f%%", float64(peak)/10))
		})
	})
	normalizer.AddGainListener(func(channel int, gain float64) {
		m := meters[channel]
		fyne.Do(func() {
			m.gain.SetValue(gain)
		})
	})

	go func() {
		if _, err := io.Copy(normalizer, os.Stdin); err != nil && err != io.EOF {
			log.Printf("helium-meter: reading input: %v", err)
		}
		normalizer.Close()
	}()

	w.ShowAndRun()
}
