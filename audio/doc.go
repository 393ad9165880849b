// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding boundary of the cue engine.
//
// Decoders stream interleaved float32 samples through the Source interface;
// ReadPCM drains a Source into a planar PCM clip that the mixer owns for
// the rest of its life. Nothing in this package runs on the render path.
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// ReadSamples returns io.EOF once the stream is finished.
//
// # Format Registry
//
// The registry maps format keys, which are also file extensions, to
// decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	dec, ok := registry.ForPath("cues/intro.wav")
//
// # Decoding a Clip
//
//	src, err := dec.Decode(file)
//	if err != nil {
//	    return err
//	}
//	pcm, err := audio.ReadPCM(src)
//
// Wrap the source in a MonoMixer first to fold it down for a mono session:
//
//	pcm, err := audio.ReadPCM(audio.NewMonoMixer(src))
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0]. PCM.Data is planar: Data[c][i] is
// sample i of channel c, and every channel has the same length.
package audio
