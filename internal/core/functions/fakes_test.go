package functions

import (
	"context"
	"fmt"
)

// opLog records the order in which the manager touched its ports.
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) { l.ops = append(l.ops, op) }

type fakeBlobStore struct {
	log       *opLog
	uploadErr error
	deleteErr error
	objects   map[string][]byte
}

func newFakeBlobStore(log *opLog) *fakeBlobStore {
	return &fakeBlobStore{log: log, objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(_ context.Context, key string, data []byte) (string, error) {
	f.log.add("blob.upload")
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[key] = data
	return "http://blobs.test/pratai/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.log.add("blob.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

type fakeImageService struct {
	log       *opLog
	buildErr  error
	deleteErr error
	stopErr   error
	built     []*BuildRequest
	images    map[string]bool
	stopped   []string
	nextID    int
}

func newFakeImageService(log *opLog) *fakeImageService {
	return &fakeImageService{log: log, images: make(map[string]bool)}
}

func (f *fakeImageService) Build(_ context.Context, req *BuildRequest) (string, error) {
	f.log.add("image.build")
	if f.buildErr != nil {
		return "", f.buildErr
	}
	f.built = append(f.built, req)
	f.nextID++
	id := fmt.Sprintf("img-%d", f.nextID)
	f.images[id] = true
	return id, nil
}

func (f *fakeImageService) DeleteImage(_ context.Context, imageID string) error {
	f.log.add("image.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.images, imageID)
	return nil
}

func (f *fakeImageService) StopFunction(_ context.Context, functionID string) error {
	f.log.add("image.stop")
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, functionID)
	return nil
}

type fakeStore struct {
	log       *opLog
	createErr error
	deleteErr error
	records   map[string]*Function
	deletes   []string
}

func newFakeStore(log *opLog) *fakeStore {
	return &fakeStore{log: log, records: make(map[string]*Function)}
}

func (f *fakeStore) Create(_ context.Context, fn *Function) error {
	f.log.add("store.create")
	if f.createErr != nil {
		return f.createErr
	}
	f.records[fn.ID] = fn
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Function, error) {
	f.log.add("store.get")
	fn, ok := f.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return fn, nil
}

func (f *fakeStore) List(_ context.Context) ([]Function, error) {
	f.log.add("store.list")
	var fns []Function
	for _, fn := range f.records {
		fns = append(fns, *fn)
	}
	return fns, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.log.add("store.delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	delete(f.records, id)
	return nil
}

type fakeQueue struct {
	publishErr error
	published  []*ExecutionTask
}

func (f *fakeQueue) Publish(_ context.Context, task *ExecutionTask) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, task)
	return nil
}
