package domain

import "context"

// Storage is a remote target that receives a copy of each artifact.
type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
}
