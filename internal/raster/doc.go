// Package raster converts RGBA pixel data into the printer's 1-bit
// row-bitmap packets and owns image preparation (scaling, rotation,
// ink inversion).
package raster
