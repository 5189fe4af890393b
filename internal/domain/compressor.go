package domain

// Compressor produces the copy of an artifact that is sent to mirror targets.
type Compressor interface {
	Compress(sourcePath, destPath string) error
	Extension() string
}
