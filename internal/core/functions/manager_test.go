package functions

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pratai-api/internal/config"
)

type managerFixture struct {
	log    *opLog
	blobs  *fakeBlobStore
	images *fakeImageService
	store  *fakeStore
	mgr    *Manager
}

func newManagerFixture() *managerFixture {
	log := &opLog{}
	blobs := newFakeBlobStore(log)
	images := newFakeImageService(log)
	store := newFakeStore(log)
	cfg := config.Config{PublicEndpoint: "http://api.test"}
	return &managerFixture{
		log:    log,
		blobs:  blobs,
		images: images,
		store:  store,
		mgr:    NewManager(store, blobs, images, cfg, zerolog.Nop()),
	}
}

var validMetadata = []byte(`{"name":"resize","runtime":"python27","memory":128,"description":"resizes images"}`)

func TestCreateSuccess(t *testing.T) {
	f := newManagerFixture()

	fn, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zipbytes"))
	require.NoError(t, err)

	assert.Len(t, fn.ID, 32)
	assert.Equal(t, "acme", fn.TenantID)
	assert.Equal(t, "alice", fn.UserID)
	assert.Equal(t, "async", fn.Type)
	assert.Equal(t, "webhook", fn.Event)
	assert.Equal(t, "active", fn.Status)
	assert.Equal(t, "acme_alice_resize", fn.Tag)
	assert.Equal(t, fn.ID+".zip", fn.ZipKey)
	assert.Equal(t, "http://blobs.test/pratai/"+fn.ZipKey, fn.ZipLocation)
	assert.Equal(t, "http://api.test/functions/"+fn.ID, fn.Endpoint)
	assert.NotEmpty(t, fn.ImageID)

	// Blob, image and record must all exist after a successful create.
	assert.Contains(t, f.blobs.objects, fn.ZipKey)
	assert.True(t, f.images.images[fn.ImageID])
	assert.Contains(t, f.store.records, fn.ID)

	// Upload precedes build precedes persist.
	assert.Equal(t, []string{"blob.upload", "image.build", "store.create"}, f.log.ops)

	require.Len(t, f.images.built, 1)
	req := f.images.built[0]
	assert.Equal(t, []string{"acme_alice_resize"}, req.Tags)
	assert.Equal(t, "python27", req.Runtime)
	assert.Equal(t, fn.ZipLocation, req.ZipLocation)
	assert.Equal(t, int64(128), req.Memory)
}

func TestCreateUploadFailureStopsWorkflow(t *testing.T) {
	f := newManagerFixture()
	f.blobs.uploadErr = errors.New("connection refused")

	_, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	// Nothing was created, so nothing is compensated.
	assert.Equal(t, []string{"blob.upload"}, f.log.ops)
	assert.Empty(t, f.store.records)
}

func TestCreateRejectsUnknownMetadataKeys(t *testing.T) {
	f := newManagerFixture()

	_, err := f.mgr.Create(context.Background(), "acme", "alice",
		[]byte(`{"name":"f","bogus":1}`), []byte("zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	// The already-uploaded blob is compensated; no build is ever issued.
	assert.Equal(t, []string{"blob.upload", "blob.delete"}, f.log.ops)
	assert.Empty(t, f.blobs.objects)
}

func TestCreateAcceptsSparseMetadata(t *testing.T) {
	f := newManagerFixture()

	fn, err := f.mgr.Create(context.Background(), "acme", "alice",
		[]byte(`{"name":"f"}`), []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, "f", fn.Name)
}

func TestCreateBuildFailureCompensatesBlob(t *testing.T) {
	f := newManagerFixture()
	f.images.buildErr = errors.New("driver exploded")

	_, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuild)

	assert.Equal(t, []string{"blob.upload", "image.build", "blob.delete"}, f.log.ops)
	assert.Empty(t, f.blobs.objects)
	assert.Empty(t, f.store.records)
}

func TestCreatePersistFailureCompensatesAll(t *testing.T) {
	f := newManagerFixture()
	f.store.createErr = errors.New("write rejected")

	_, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)

	// Record delete is attempted first (idempotent even though the record
	// never landed), then image and blob unwind in reverse order.
	assert.Equal(t, []string{
		"blob.upload", "image.build", "store.create",
		"store.delete", "image.delete", "blob.delete",
	}, f.log.ops)
	assert.Empty(t, f.blobs.objects)
	assert.Empty(t, f.images.images)
	assert.Empty(t, f.store.records)

	// Compensation succeeded everywhere, so no secondary diagnostics.
	var werr *WorkflowError
	require.ErrorAs(t, err, &werr)
	assert.Empty(t, werr.Secondary)
}

func TestCreateCompensationFailuresAreCollectedNotRaised(t *testing.T) {
	f := newManagerFixture()
	f.store.createErr = errors.New("write rejected")
	f.blobs.deleteErr = errors.New("blob store down")
	f.images.deleteErr = errors.New("driver down")

	_, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.Error(t, err)

	// The original persist error is what the caller sees.
	assert.ErrorIs(t, err, ErrPersist)
	assert.NotErrorIs(t, err, ErrStorage)

	// Every compensating action was still attempted.
	assert.Equal(t, []string{
		"blob.upload", "image.build", "store.create",
		"store.delete", "image.delete", "blob.delete",
	}, f.log.ops)

	var werr *WorkflowError
	require.ErrorAs(t, err, &werr)
	require.Len(t, werr.Secondary, 2)
	assert.Equal(t, "delete image", werr.Secondary[0].Step)
	assert.Equal(t, "delete package blob", werr.Secondary[1].Step)
}

func TestDeleteSuccess(t *testing.T) {
	f := newManagerFixture()
	fn, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.NoError(t, err)

	f.log.ops = nil
	require.NoError(t, f.mgr.Delete(context.Background(), fn.ID))

	assert.Equal(t, []string{"store.get", "blob.delete", "image.delete", "store.delete"}, f.log.ops)
	assert.Empty(t, f.blobs.objects)
	assert.Empty(t, f.images.images)
	assert.Empty(t, f.store.records)
}

func TestDeleteUnknownFunction(t *testing.T) {
	f := newManagerFixture()

	err := f.mgr.Delete(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteContinuesPastFailures(t *testing.T) {
	f := newManagerFixture()
	fn, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.NoError(t, err)

	f.blobs.deleteErr = errors.New("blob store down")
	f.log.ops = nil

	err = f.mgr.Delete(context.Background(), fn.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	// Image and record deletion still ran.
	assert.Equal(t, []string{"store.get", "blob.delete", "image.delete", "store.delete"}, f.log.ops)
	assert.Empty(t, f.images.images)
	assert.Empty(t, f.store.records)
}

func TestStopFunction(t *testing.T) {
	f := newManagerFixture()
	fn, err := f.mgr.Create(context.Background(), "acme", "alice", validMetadata, []byte("zip"))
	require.NoError(t, err)

	require.NoError(t, f.mgr.Stop(context.Background(), fn.ID))
	assert.Equal(t, []string{fn.ID}, f.images.stopped)

	assert.ErrorIs(t, f.mgr.Stop(context.Background(), "unknown"), ErrNotFound)
}
