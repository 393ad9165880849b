// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams.
//
// Decoding is done by github.com/jfreymuth/oggvorbis, a pure Go decoder.
//
// # Supported Formats
//
// Currently supported:
//   - Vorbis I audio in an Ogg container
//   - Any channel count the stream declares
//   - Any sample rate
//
// Other codecs in Ogg, such as Opus or FLAC, are rejected with
// ErrInvalidStream.
//
// # Decoding Ogg Vorbis Files
//
// Use the Decoder to read Ogg Vorbis streams:
//
//	f, err := os.Open("ambience.ogg")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// The decoder already produces float32 in [-1, 1], so samples are handed
// through untouched. The engine registers this decoder for the .ogg and
// .oga extensions.
//
// # Frame Alignment
//
// ReadSamples only reads whole frames. The usable part of dst is rounded
// down to a multiple of the channel count, and a dst shorter than one
// frame reads nothing:
//
//	buf := make([]float32, 5) // stereo: reads at most 4 samples
//
// # Error Handling
//
// Decode wraps header errors in ErrInvalidStream and rejects a stream
// that declares no channels with audio.ErrNoChannels:
//
//	_, err := vorbis.Decoder{}.Decode(f)
//	if errors.Is(err, vorbis.ErrInvalidStream) {
//	    fmt.Println("not an Ogg Vorbis stream")
//	}
//
// Errors in the middle of a stream are returned from ReadSamples together
// with the samples decoded before them. io.EOF marks the end of the
// stream.
//
// # Performance
//
// oggvorbis decodes straight into dst, so reading needs no intermediate
// buffer.
package vorbis
