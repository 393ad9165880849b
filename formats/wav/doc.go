// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files.
//
// Both directions go through github.com/go-audio/wav, so RIFF chunk
// handling is left to that library.
//
// # Supported Formats
//
// Decoding accepts:
//   - WAVE_FORMAT_PCM (format tag 1) only
//   - 16, 24 and 32-bit integer samples
//   - Any channel count
//   - Any sample rate
//
// Writing produces the same three bit depths, with the channel count and
// sample rate given to NewWriter.
//
// # Decoding WAV Files
//
// Use the Decoder to open a file as an audio.Source:
//
//	f, err := os.Open("intro.wav")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	pcm, err := audio.ReadPCM(src)
//
// Samples come out interleaved as float32 in [-1, 1]. The decoder seeks
// between chunks; a reader that is not an io.ReadSeeker is read into
// memory first.
//
// # Writing WAV Files
//
// Writer streams planar float32 blocks, the shape a render callback
// produces, into a file:
//
//	w, err := wav.NewWriter(f, 48000, 2, 24)
//	if err != nil {
//	    return err
//	}
//	for rendering {
//	    if err := w.WritePlanar(block, frames); err != nil {
//	        return err
//	    }
//	}
//	err = w.Close()
//
// Samples outside [-1, 1] are clipped. Close patches the RIFF and data
// chunk sizes, so the destination must be an io.WriteSeeker. Frames
// reports how many frames were written so far.
//
// Encode writes a whole audio.PCM in one call:
//
//	err := wav.Encode(f, pcm, 16)
//
// # Error Handling
//
// The package defines these errors, matched with errors.Is:
//   - ErrNotWavFile: the input has no RIFF/WAVE header
//   - ErrUnsupportedWavLayout: a non-PCM format tag or no channels
//   - ErrUnsupportedBitDepth: a sample size other than 16, 24 or 32 bits
//   - ErrUnsupportedWavChunks: the data chunk could not be located
//   - ErrChannelMismatch: WritePlanar got a different channel count
//   - ErrWriterClosed: WritePlanar after Close (a second Close is a no-op)
//
// Example:
//
//	src, err := wav.Decoder{}.Decode(f)
//	if errors.Is(err, wav.ErrUnsupportedBitDepth) {
//	    fmt.Println("re-export the file as 16, 24 or 32-bit PCM")
//	}
//
// # Performance
//
// The decoding source keeps one go-audio IntBuffer and grows it only when
// a caller asks for more samples than before, so a steady read loop does
// not allocate. The writer reuses its interleave buffer across blocks in
// the same way.
package wav
