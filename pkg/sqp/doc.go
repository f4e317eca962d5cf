// Package sqp implements the SQP still image container.
//
// A stream is a header followed by one length-prefixed segment per plane:
//
//	magic     "SQPF"
//	version   1
//	width     uint32, big endian
//	height    uint32, big endian
//	color     0 rgba8, 1 rgb8, 2 graya8, 3 gray8
//	flags     bit 0 lossy, bit 1 lossy alpha, bit 2 raw
//	quality   1..100, present only when lossy
//	segments  uint32 length + payload, in plane order
//
// Plane order is gray [G], gray+alpha [G A], colour [Y Cb Cr] and colour
// with alpha [Y Cb Cr A]. Lossless streams use the reversible colour
// transform, lossy streams BT.601 YCbCr and raw streams store RGB as is.
// Each payload is a packed (see package pack) lossless, lossy or raw plane.
//
// Importing this package registers the format with image.Decode.
package sqp
