package main

import (
	"context"
	"log"
	"time"

	"suitcase/internal/checksum"
	"suitcase/internal/config"
	"suitcase/internal/domain"
	"suitcase/internal/repository"
	"suitcase/internal/repository/sqlite"
	"suitcase/internal/service"
)

// recorder writes one run and the files it touched into the catalog
type recorder struct {
	ctx  context.Context
	repo repository.Repository
	run  *domain.Run
}

// openCatalog opens the configured run catalog
func openCatalog(cfg *config.Config) (*sqlite.Repository, error) {
	if err := config.EnsureDir(cfg.Catalog.Path); err != nil {
		return nil, err
	}
	return sqlite.New(cfg.Catalog.Path)
}

// startRecording creates a catalog run and subscribes it to bus. It returns
// a nil recorder when the catalog is disabled; a nil recorder is a no-op.
func (a *app) startRecording(ctx context.Context, direction, formatName string) (*recorder, error) {
	if !a.cfg.Catalog.Enabled {
		return nil, nil
	}

	repo, err := openCatalog(a.cfg)
	if err != nil {
		return nil, err
	}

	r := &recorder{
		ctx:  ctx,
		repo: repo,
		run:  domain.NewRun(direction, formatName),
	}
	if err := repo.CreateRun(ctx, r.run); err != nil {
		repo.Close()
		return nil, err
	}
	a.bus.Subscribe(r.observe)
	return r, nil
}

func (r *recorder) observe(e service.Event) {
	p, ok := e.Payload.(service.FilePayload)
	if !ok {
		return
	}

	kind := domain.ArtifactSource
	if e.Type == service.EventFileWritten {
		kind = domain.ArtifactImage
		if p.Kind == domain.KindStop {
			kind = domain.ArtifactStop
		}
	}

	artifact := &domain.Artifact{RunUID: r.run.UID, Path: p.Path, Kind: kind, Size: p.Bytes}
	if sum, err := checksum.File(p.Path); err == nil {
		artifact.Checksum = string(sum)
	} else {
		log.Printf("Failed to checksum %s: %v", p.Path, err)
	}
	if err := r.repo.AddArtifact(r.ctx, artifact); err != nil {
		log.Printf("Failed to record %s: %v", p.Path, err)
	}
}

// finish closes the run with the outcome of the command
func (r *recorder) finish(cmdErr error) {
	if r == nil {
		return
	}
	defer r.repo.Close()

	status, reason := domain.RunSuccess, ""
	if cmdErr != nil {
		status, reason = domain.RunFailed, cmdErr.Error()
	}
	// the command context may already be cancelled
	if err := r.repo.FinishRun(context.Background(), r.run.UID, status, reason, time.Now()); err != nil {
		log.Printf("Failed to finish run %s: %v", r.run.UID, err)
	}
}
