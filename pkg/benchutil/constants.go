package benchutil

// Shared constants for benchmarks across packages.

// BenchmarkSeed is the default seed for reproducible benchmark data generation.
const BenchmarkSeed = 42

// BatchSizes are the archive sizes used by batch and export benchmarks.
var BatchSizes = []int{10, 100, 1000}

// SeriesLengths are the ring counts used by codec benchmarks. 64 fills
// exactly one data block; 500 spans four.
var SeriesLengths = []int{64, 500, 2000}
