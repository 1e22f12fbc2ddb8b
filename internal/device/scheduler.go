// Package device governs the physical placement of the single loaded model
// between host and accelerator memory.
//
// The scheduler assumes strictly serial use: the orchestrator holds a
// global lock across the pre-transition, the backend dispatch, and the
// post-transition, so no two synthesis calls ever race on placement.
package device

import (
	"fmt"

	"github.com/book-expert/logger"

	"github.com/book-expert/xtts-service/internal/core"
)

// Scheduler relocates the model around synthesis calls when low-memory
// mode is active.
type Scheduler struct {
	handle *core.ModelHandle
	log    *logger.Logger
}

// New creates a scheduler for the given model handle.
func New(handle *core.ModelHandle, log *logger.Logger) *Scheduler {
	return &Scheduler{handle: handle, log: log}
}

// BeforeCall moves the model onto the configured accelerator ahead of a
// synthesis call. It is a no-op unless placement is managed.
func (s *Scheduler) BeforeCall() error {
	return s.moveTo(s.handle.TargetDevice)
}

// AfterCall restores the model to host memory after a synthesis call and
// releases any accelerator-side cache held by the freed weights. It must
// run whether the call succeeded or failed, so the model is never left
// stranded on the accelerator.
func (s *Scheduler) AfterCall() error {
	err := s.moveTo(core.DeviceHost)
	if err != nil {
		return err
	}

	if s.managed() && s.handle.CurrentDevice == core.DeviceHost {
		if releaser, ok := s.handle.Local.(core.AcceleratorCacheReleaser); ok {
			releaser.ReleaseAcceleratorCache()
		}
	}

	return nil
}

// managed reports whether the scheduler relocates the model at all. When
// low-memory mode is off, no accelerator is available, or the configured
// device already is host memory, the model stays wherever it was loaded.
func (s *Scheduler) managed() bool {
	return s.handle.LowMemory &&
		s.handle.AcceleratorAvailable &&
		s.handle.Local != nil &&
		s.handle.TargetDevice != core.DeviceHost
}

// moveTo relocates the model to the target device. Idempotent: a no-op if
// the model already resides there.
func (s *Scheduler) moveTo(target core.Device) error {
	if !s.managed() {
		return nil
	}

	if s.handle.CurrentDevice == target {
		return nil
	}

	err := s.handle.Local.Relocate(target)
	if err != nil {
		return fmt.Errorf("failed to relocate model to %s: %w", target, err)
	}

	s.handle.CurrentDevice = target

	return nil
}
