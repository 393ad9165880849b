// SPDX-License-Identifier: EPL-2.0

package cuemix_test

import (
	"fmt"
	"log/slog"

	"github.com/ik5/cuemix"
	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/crossfade"
)

func clip(frames int, v float32) *audio.PCM {
	data := make([][]float32, 2)
	for ch := range data {
		data[ch] = make([]float32, frames)
		for i := range data[ch] {
			data[ch][i] = v
		}
	}

	return &audio.PCM{SampleRate: 48000, Data: data}
}

// Example_basicUsage loads a clip, starts it and renders one callback.
func Example_basicUsage() {
	eng, err := cuemix.New(48000, 2, cuemix.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		fmt.Println(err)
		return
	}

	if !eng.LoadPCM("intro", clip(48000, 0.5)) {
		fmt.Println(eng.LastError())
		return
	}
	eng.StartCue("intro")
	eng.SetCueVolume("intro", 0.5)

	out := [][]float32{make([]float32, 256), make([]float32, 256)}
	eng.Render(out, 256)

	fmt.Printf("playing=%v sample=%.2f\n", eng.IsCuePlaying("intro"), out[0][0])
	// Output: playing=true sample=0.25
}

// Example_crossfade hands over from one cue to another.
func Example_crossfade() {
	eng, _ := cuemix.New(48000, 2, cuemix.WithLogger(slog.New(slog.DiscardHandler)))
	eng.LoadPCM("act1", clip(48000, 0.5))
	eng.LoadPCM("act2", clip(48000, 0.5))

	eng.StartCue("act1")
	eng.StartCrossfadeWith("act1", "act2", 0.01, crossfade.Linear)

	out := [][]float32{make([]float32, 480), make([]float32, 480)}
	eng.Render(out, 480)

	for _, info := range eng.AllCues() {
		fmt.Println(info.ID, info.State)
	}
	fmt.Printf("crossfading=%v progress=%.1f\n", eng.IsCrossfading(), eng.CrossfadeProgress())
	// Output:
	// act1 stopped
	// act2 playing
	// crossfading=false progress=1.0
}

// Example_unknownCue shows the no-throw failure model.
func Example_unknownCue() {
	eng, _ := cuemix.New(48000, 2, cuemix.WithLogger(slog.New(slog.DiscardHandler)))

	fmt.Println(eng.StopCue("nonexistent"))
	fmt.Println(eng.LastError())
	// Output:
	// false
	// cue not found: "nonexistent"
}
