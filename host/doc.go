// SPDX-License-Identifier: EPL-2.0

// Package host connects a Renderer to the outside world.
//
// OtoBackend and BeepBackend drive a Renderer from the platform audio
// device; both pull audio from the driver's own goroutine, which becomes
// the render goroutine. oto allows one context per process and beep's
// speaker is built on oto, so only one of them can be open at a time.
//
// Bounce renders offline into a WAV file, for headless runs and tests.
//
// The device helpers classify an output device by name and suggest
// settings for it. They never open the device.
package host
