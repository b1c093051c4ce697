package functions

import "context"

// BlobStore holds packaged function code. Upload returns the public URL of
// the stored object.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// ImageService is the external driver that turns a code package into a
// runnable image and manages running functions.
type ImageService interface {
	Build(ctx context.Context, req *BuildRequest) (imageID string, err error)
	DeleteImage(ctx context.Context, imageID string) error
	StopFunction(ctx context.Context, functionID string) error
}

// BuildRequest is the payload for an image build.
type BuildRequest struct {
	Memory      int64    `json:"memory"`
	Tags        []string `json:"tags"`
	Runtime     string   `json:"runtime"`
	ZipLocation string   `json:"zip_location"`
	Name        string   `json:"name"`
}

// Store persists Function records keyed by function id. Get returns
// ErrNotFound for unknown ids; Delete of an unknown id is not an error.
type Store interface {
	Create(ctx context.Context, fn *Function) error
	Get(ctx context.Context, id string) (*Function, error)
	List(ctx context.Context) ([]Function, error)
	Delete(ctx context.Context, id string) error
}

// TaskQueue pushes execution tasks at the worker fleet. Delivery is
// at-most-once: a returned error means the task was not handed to the
// broker, but a nil return is no durability guarantee either.
type TaskQueue interface {
	Publish(ctx context.Context, task *ExecutionTask) error
}
