package engine

import "errors"

var (
	// ErrDisposed is returned by operations on a disposed engine.
	ErrDisposed = errors.New("engine: disposed")

	// ErrNotInitialized is returned by Render and Readback before Init.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrNilDevice is returned when no usable device or queue is supplied.
	ErrNilDevice = errors.New("engine: nil device or queue")

	// ErrNoProgram is returned by Render when no program could ever be
	// compiled, not even the pass-through fallback.
	ErrNoProgram = errors.New("engine: no active program")

	// ErrContextLost is returned by Readback while the device is lost.
	ErrContextLost = errors.New("engine: context lost")

	// ErrNoFrame is returned by Readback before the first rendered frame.
	ErrNoFrame = errors.New("engine: nothing rendered yet")

	// ErrSurfaceTarget is returned by Readback while rendering into a
	// host-provided surface view.
	ErrSurfaceTarget = errors.New("engine: readback unavailable for surface targets")
)
