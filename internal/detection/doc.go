// Package detection locates areas of an image that probably hold text.
//
// Detection is heuristic: a gradient edge map is scanned with windows sized
// like lines of small to large print, and windows whose edge density and
// mostly horizontal edge runs look like text become candidates. Overlapping
// candidates are merged. The regions can be passed straight back as crop
// regions for partial OCR.
//
// Coordinates are relative to the image origin, matching imaging.CropRegion.
package detection
