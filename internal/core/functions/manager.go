package functions

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pratai-api/internal/config"
	"pratai-api/pkg/rand"
)

// Manager drives the multi-step function lifecycle across the blob store,
// the image build driver and the resource store.
type Manager struct {
	store  Store
	blobs  BlobStore
	images ImageService
	cfg    config.Config
	lg     zerolog.Logger
}

func NewManager(store Store, blobs BlobStore, images ImageService, cfg config.Config, lg zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		blobs:  blobs,
		images: images,
		cfg:    cfg,
		lg:     lg.With().Str("component", "function-manager").Logger(),
	}
}

// Create runs the create workflow: upload the code package, validate the
// metadata, request an image build, persist the record. A failure at any
// step unwinds the steps that completed before it and reports the step's
// own error; compensation failures ride along as secondary diagnostics.
//
// The record is persisted last, so a Function row never references a blob
// or image that was not created. The reverse can happen: compensation is
// best effort and may leave orphaned blobs or images behind.
func (m *Manager) Create(ctx context.Context, tenantID, userID string, rawMetadata, pkg []byte) (*Function, error) {
	functionID := rand.ID()
	lg := m.lg.With().Str("function_id", functionID).Logger()
	comp := &compensator{lg: lg}

	fail := func(err error) error {
		return &WorkflowError{Err: err, Secondary: comp.unwind(ctx)}
	}

	zipKey := functionID + ".zip"
	zipURL, err := m.blobs.Upload(ctx, zipKey, pkg)
	if err != nil {
		return nil, fail(fmt.Errorf("%w: upload package: %v", ErrStorage, err))
	}
	comp.push("delete package blob", func(ctx context.Context) error {
		return m.blobs.Delete(ctx, zipKey)
	})

	meta, err := ParseMetadata(rawMetadata)
	if err != nil {
		return nil, fail(err)
	}

	tag := fmt.Sprintf("%s_%s_%s", tenantID, userID, meta.Name)
	imageID, err := m.images.Build(ctx, &BuildRequest{
		Memory:      meta.Memory,
		Tags:        []string{tag},
		Runtime:     meta.Runtime,
		ZipLocation: zipURL,
		Name:        meta.Name,
	})
	if err != nil {
		return nil, fail(fmt.Errorf("%w: %v", ErrBuild, err))
	}
	comp.push("delete image", func(ctx context.Context) error {
		return m.images.DeleteImage(ctx, imageID)
	})

	fn := &Function{
		ID:          functionID,
		TenantID:    tenantID,
		UserID:      userID,
		ImageID:     imageID,
		Name:        meta.Name,
		Description: meta.Description,
		Type:        "async",
		Event:       "webhook",
		Endpoint:    fmt.Sprintf("%s/functions/%s", m.cfg.PublicEndpoint, functionID),
		Runtime:     meta.Runtime,
		Memory:      meta.Memory,
		ZipLocation: zipURL,
		ZipKey:      zipKey,
		Tag:         tag,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.store.Create(ctx, fn); err != nil {
		// The write may have partially landed; delete whatever is visible.
		// Store.Delete treats an absent record as success.
		werr := &WorkflowError{Err: fmt.Errorf("%w: %v", ErrPersist, err)}
		if derr := m.store.Delete(ctx, functionID); derr != nil {
			lg.Error().Err(derr).Msg("compensation failed: delete function record")
			werr.Secondary = append(werr.Secondary, StepError{Step: "delete function record", Err: derr})
		}
		werr.Secondary = append(werr.Secondary, comp.unwind(ctx)...)
		return nil, werr
	}

	lg.Info().Str("image_id", imageID).Str("tag", tag).Msg("function created")
	return fn, nil
}

// Delete removes a function and its peer resources. Unlike Create there is
// no rollback: every step is attempted regardless of earlier failures, and
// the first failure is reported with the rest attached as diagnostics. A
// mid-delete failure therefore surfaces as an error even though later steps
// may have succeeded.
func (m *Manager) Delete(ctx context.Context, functionID string) error {
	fn, err := m.store.Get(ctx, functionID)
	if err != nil {
		return err
	}

	var failed []StepError
	if err := m.blobs.Delete(ctx, fn.ZipKey); err != nil {
		m.lg.Error().Err(err).Str("function_id", functionID).Msg("delete package blob failed")
		failed = append(failed, StepError{Step: "delete package blob", Err: fmt.Errorf("%w: %v", ErrStorage, err)})
	}
	if err := m.images.DeleteImage(ctx, fn.ImageID); err != nil {
		m.lg.Error().Err(err).Str("function_id", functionID).Msg("delete image failed")
		failed = append(failed, StepError{Step: "delete image", Err: fmt.Errorf("%w: %v", ErrBuild, err)})
	}
	if err := m.store.Delete(ctx, functionID); err != nil {
		m.lg.Error().Err(err).Str("function_id", functionID).Msg("delete function record failed")
		failed = append(failed, StepError{Step: "delete function record", Err: fmt.Errorf("%w: %v", ErrPersist, err)})
	}

	if len(failed) > 0 {
		return &WorkflowError{Err: failed[0].Err, Secondary: failed[1:]}
	}
	m.lg.Info().Str("function_id", functionID).Msg("function deleted")
	return nil
}

// Get returns a single function record.
func (m *Manager) Get(ctx context.Context, functionID string) (*Function, error) {
	return m.store.Get(ctx, functionID)
}

// List returns all function records.
func (m *Manager) List(ctx context.Context) ([]Function, error) {
	return m.store.List(ctx)
}

// Stop asks the driver to stop a running function.
func (m *Manager) Stop(ctx context.Context, functionID string) error {
	if _, err := m.store.Get(ctx, functionID); err != nil {
		return err
	}
	if err := m.images.StopFunction(ctx, functionID); err != nil {
		return fmt.Errorf("stop function: %w", err)
	}
	return nil
}
