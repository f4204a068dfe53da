// Package catras reads and writes CATRAS tree-ring files (.cat).
//
// A CATRAS file is a sequence of 128-byte blocks with no self-describing
// structure:
//
//	[header(128)][ring widths: n pairs, padded to 128][sample depths: n pairs, chronologies only]
//
// Integers are little-endian byte pairs with a CATRAS-specific sign rule
// (see ReadBytePair). A pair of 0xFF 0xFF (-1) marks padding and is
// dropped; values below -1 are missing rings and decode as 0.
//
// Decoding never fails on data-quality problems. Unknown codes, bad dates
// and count mismatches are returned as Warnings next to the Record. Only
// structural problems (short buffer, size not a multiple of 128, non-IEEE
// number format) return an error, and those wrap ErrInvalidFormat.
//
// Usage:
//
//	rec, warnings, err := catras.Decode(data)
//	if err != nil {
//	    return err
//	}
//	for _, w := range warnings {
//	    log.Println(w)
//	}
//	out, err := catras.Encode(rec)
package catras
