// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG audio Layer III streams.
//
// Decoding is done by github.com/hajimehoshi/go-mp3, a pure Go decoder, so
// no cgo or system library is needed.
//
// # Supported Formats
//
// Currently supported:
//   - MPEG-1 and MPEG-2 Layer III
//   - Constant and variable bit rates
//   - Mono and stereo
//
// go-mp3 always produces 16-bit stereo. Every source therefore reports two
// channels and a mono file comes out duplicated on both.
//
// # Decoding MP3 Files
//
// Use the Decoder to read MP3 streams:
//
//	f, err := os.Open("walk-in.mp3")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	pcm, err := audio.ReadPCM(src)
//
// Samples come out interleaved as float32 in [-1, 1]. ReadSamples fills
// dst across go-mp3's short reads, so a short count only happens at the
// end of the stream.
//
// The engine registers this decoder for the .mp3 extension.
//
// # Sample Rate
//
// The engine does not resample. An MP3 at 44.1 kHz cannot be loaded into
// a 48 kHz session; convert the file beforehand.
//
// # Error Handling
//
// Decode wraps failures to find a valid frame header in ErrInvalidStream:
//
//	_, err := mp3.Decoder{}.Decode(f)
//	if errors.Is(err, mp3.ErrInvalidStream) {
//	    fmt.Println("not an MP3 stream")
//	}
//
// Errors in the middle of a stream are returned from ReadSamples together
// with the samples decoded before them.
//
// # Performance
//
// Each source keeps one byte buffer and grows it only when a read asks for
// more samples than any earlier one.
package mp3
