// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes integer PCM AIFF files.
//
// Parsing is done by github.com/go-audio/aiff; this package checks the
// layout and exposes the samples as an audio.Source.
//
// # Supported Formats
//
// Currently supported:
//   - 16, 24 and 32-bit big-endian integer samples
//   - Any channel count
//   - Any sample rate
//
// Files with another sample size are rejected with ErrUnsupportedBitDepth.
//
// # Decoding AIFF Files
//
// Use the Decoder to read AIFF files:
//
//	f, err := os.Open("thunder.aiff")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Samples come out interleaved as float32 in [-1, 1]. ReadSamples returns
// io.EOF once the sound data chunk is exhausted.
//
// go-audio seeks between chunks, so a reader that is not an io.ReadSeeker
// is read into memory first. Files opened with os.Open are used as they
// are.
//
// # Loading into the engine
//
// The engine registers this decoder for the .aiff and .aif extensions,
// so most callers never use it directly:
//
//	eng.LoadCue("thunder", "sfx/thunder.aiff")
//
// # Error Handling
//
// The package defines these errors, matched with errors.Is:
//   - ErrNotAiffFile: the input has no FORM/AIFF header
//   - ErrUnsupportedBitDepth: a sample size other than 16, 24 or 32 bits
//   - ErrUnsupportedAiffLayout: the COMM chunk reports no channels
//
// Example:
//
//	_, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    fmt.Println("not an AIFF file")
//	}
//
// # Performance
//
// Decoding shares the integer PCM source used by the wav package. It keeps
// one go-audio IntBuffer per source and grows it only when a read asks for
// more samples than any earlier one.
package aiff
