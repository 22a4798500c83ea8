// Package imaging prepares decoded images for text recognition.
//
// The central type is Preprocessor, whose Prepare method runs a fixed
// sequence of steps selected by a PreprocessConfig:
//
//  1. upscale to a minimum width (always, bilinear, aspect preserved)
//  2. grayscale (BT.601 luma), forced when a later step needs one channel
//  3. optional inversion of light-on-dark images
//  4. CLAHE contrast enhancement (clip 3.0, 8x8 tiles)
//  5. 3x3 median noise removal
//  6. sharpening with the 5/-1 cross kernel
//  7. thresholding (adaptive Gaussian by default, global or Otsu on request)
//
// Every step allocates a new buffer; the caller's image is never modified.
// A failing step does not abort preparation: Prepare returns the image as it
// stood before that step together with a *StepError.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. For
// regions, (X1,Y1) is inclusive and (X2,Y2) is exclusive.
//
// # Decoding
//
// Decode and Load try the general registry decoder first and then a codec
// chosen by file extension, so formats rejected by one path can still be read
// by the other.
package imaging
