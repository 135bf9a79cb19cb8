// Package spatial provides reusable non-I/O spatial audio effects.
//
// Included processors:
//   - StereoWidener: Mid/side stereo image widening and narrowing.
//   - Spatializer: Binaural rendering of a mono source from a coarse
//     synthesized HRTF grid with nearest-neighbor lookup.
//   - RoomReflector: First-order image-source room reflections.
package spatial
