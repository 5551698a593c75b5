package injector

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Disposable is implemented by services that release resources when
// their scope frame ends or the injector closes.
type Disposable interface {
	Dispose() error
}

// closer matches services that expose Close instead of Dispose.
type closer interface {
	Close() error
}

// dispose releases one instance. Transient instances never reach here.
func dispose(key TypeKey, instance any) error {
	var err error

	switch v := instance.(type) {
	case Disposable:
		err = v.Dispose()
	case closer:
		err = v.Close()
	}

	if err != nil {
		return fmt.Errorf("failed to dispose %s: %w", key, err)
	}

	return nil
}

// scopeFrame caches scoped instances for one level of a scope stack.
type scopeFrame struct {
	instances map[TypeKey]any
	order     []TypeKey // construction order
	ended     bool
	mu        sync.Mutex
}

func newScopeFrame() *scopeFrame {
	return &scopeFrame{
		instances: make(map[TypeKey]any),
	}
}

// get returns the instance cached for key in this frame.
func (f *scopeFrame) get(key TypeKey) (any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return nil, false, ErrScopeEnded
	}

	instance, ok := f.instances[key]

	return instance, ok, nil
}

// put stores instance under key. If another instance was stored while
// the factory ran, the stored one wins and is returned with won false.
func (f *scopeFrame) put(key TypeKey, instance any) (stored any, won bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return nil, false, ErrScopeEnded
	}

	if existing, ok := f.instances[key]; ok {
		return existing, false, nil
	}

	f.instances[key] = instance
	f.order = append(f.order, key)

	return instance, true, nil
}

// len returns the number of cached instances.
func (f *scopeFrame) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.instances)
}

// release ends the frame and disposes its instances in reverse
// construction order.
func (f *scopeFrame) release() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ended {
		return nil
	}

	var err error

	for i := len(f.order) - 1; i >= 0; i-- {
		key := f.order[i]
		err = multierr.Append(err, dispose(key, f.instances[key]))
	}

	f.instances = nil
	f.order = nil
	f.ended = true

	return err
}

// scopeStack is an ordered stack of frames. It is not synchronized;
// its owner guards it.
type scopeStack struct {
	frames []*scopeFrame
}

func (s *scopeStack) push() *scopeFrame {
	f := newScopeFrame()
	s.frames = append(s.frames, f)

	return f
}

// pop removes the top frame, or returns nil when the stack is empty.
func (s *scopeStack) pop() *scopeFrame {
	if len(s.frames) == 0 {
		return nil
	}

	top := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]

	return top
}

func (s *scopeStack) top() *scopeFrame {
	if len(s.frames) == 0 {
		return nil
	}

	return s.frames[len(s.frames)-1]
}

func (s *scopeStack) depth() int {
	return len(s.frames)
}

// drain removes every frame, innermost first.
func (s *scopeStack) drain() []*scopeFrame {
	drained := make([]*scopeFrame, 0, len(s.frames))
	for f := s.pop(); f != nil; f = s.pop() {
		drained = append(drained, f)
	}

	return drained
}

// releaseFrames releases frames in the given order and combines the errors.
func releaseFrames(frames []*scopeFrame) error {
	var err error
	for _, f := range frames {
		err = multierr.Append(err, f.release())
	}

	return err
}

// Scope is an independent unit of work with its own frame stack.
// Scoped services resolved through a Scope are shared within its top
// frame and released when that frame ends. Use one Scope per request
// or job; a Scope may be shared by goroutines of the same unit of work.
type Scope struct {
	id       string
	injector *Injector
	stack    scopeStack
	ended    bool
	mu       sync.RWMutex
}

// newScope creates a new scope with one open frame.
func newScope(inj *Injector) *Scope {
	s := &Scope{
		id:       uuid.NewString(),
		injector: inj,
	}
	s.stack.push()

	return s
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() string {
	return s.id
}

// Resolve returns a service by key from this scope.
func (s *Scope) Resolve(key TypeKey) (any, error) {
	return s.ResolveContext(context.Background(), key)
}

// ResolveContext is Resolve with a context carrying trace and log values.
func (s *Scope) ResolveContext(ctx context.Context, key TypeKey) (any, error) {
	s.mu.RLock()
	ended := s.ended
	s.mu.RUnlock()

	if ended {
		return nil, ErrScopeEnded
	}

	return s.injector.resolve(newResolution(ctx, s.injector, s), key)
}

// CreateScope opens a nested frame inside this scope.
func (s *Scope) CreateScope() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrScopeEnded
	}

	s.stack.push()
	s.injector.logger.Debug("scope frame opened",
		zap.String("scope", s.id),
		zap.Int("depth", s.stack.depth()),
	)

	return nil
}

// EndScope closes the innermost frame. It is a no-op when no frame is open.
func (s *Scope) EndScope() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()

		return ErrScopeEnded
	}

	frame := s.stack.pop()
	depth := s.stack.depth()
	s.mu.Unlock()

	if frame == nil {
		return nil
	}

	s.injector.logger.Debug("scope frame closed",
		zap.String("scope", s.id),
		zap.Int("depth", depth),
	)

	return s.injector.logDisposeError(frame.release(), s.id)
}

// Depth returns the number of open frames.
func (s *Scope) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stack.depth()
}

// End releases every frame of the scope. Calling End twice returns ErrScopeEnded.
func (s *Scope) End() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()

		return ErrScopeEnded
	}

	frames := s.stack.drain()
	s.ended = true
	s.mu.Unlock()

	s.injector.logger.Debug("scope ended",
		zap.String("scope", s.id),
		zap.Int("frames", len(frames)),
	)

	return s.injector.logDisposeError(releaseFrames(frames), s.id)
}

// topFrame implements owner.
func (s *Scope) topFrame() (*scopeFrame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ended {
		return nil, ErrScopeEnded
	}

	frame := s.stack.top()
	if frame == nil {
		return nil, ErrNoActiveScope
	}

	return frame, nil
}

// scopeID implements owner.
func (s *Scope) scopeID() string {
	return s.id
}

// IsEnded reports whether End was called.
func (s *Scope) IsEnded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ended
}

// Has checks if key is registered with the injector behind the scope.
func (s *Scope) Has(key TypeKey) bool {
	return s.injector.Has(key)
}

// Instances returns the number of scoped instances cached in the top frame.
func (s *Scope) Instances() int {
	frame, err := s.topFrame()
	if err != nil {
		return 0
	}

	return frame.len()
}
