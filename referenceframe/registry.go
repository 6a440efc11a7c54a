package referenceframe

import (
	"sort"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultBufferDuration is how much dynamic transform history is retained,
// in seconds.
const DefaultBufferDuration = 30.0

// RegistryConfig configures a transform registry.
type RegistryConfig struct {
	// BufferDuration is the dynamic buffer retention window in seconds.
	// Zero selects DefaultBufferDuration.
	BufferDuration float64

	// TFThrottleRate is forwarded opaquely to the message broker by the
	// host; zero means no throttling. The registry only stores it.
	TFThrottleRate float64
}

// Validate checks the config for out-of-range values.
func (c RegistryConfig) Validate() error {
	if c.BufferDuration < 0 {
		return errors.Errorf("buffer duration must be non-negative, got %f", c.BufferDuration)
	}
	if c.TFThrottleRate < 0 {
		return errors.Errorf("tf throttle rate must be non-negative, got %f", c.TFThrottleRate)
	}
	return nil
}

// RegistryObserver is notified synchronously from the ingest path when the
// registry's observable state changes.
type RegistryObserver interface {
	FramesChanged(frames []string)
	ActiveChanged(active bool)
}

type pairKey struct {
	parent string
	child  string
}

// Registry maintains per-frame-pair transform buffers and an undirected
// adjacency graph of frames, and answers interpolated transform lookups
// between any two connected frames.
type Registry struct {
	mu        sync.RWMutex
	logger    golog.Logger
	conf      RegistryConfig
	static    map[pairKey]*TransformBuffer
	dynamic   map[pairKey]*TransformBuffer
	adjacency map[string]map[string]bool
	known     map[string]bool
	active    bool
	observers []RegistryObserver
}

// NewRegistry creates an empty registry.
func NewRegistry(conf RegistryConfig, logger golog.Logger) (*Registry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.BufferDuration == 0 {
		conf.BufferDuration = DefaultBufferDuration
	}
	return &Registry{
		logger:    logger,
		conf:      conf,
		static:    map[pairKey]*TransformBuffer{},
		dynamic:   map[pairKey]*TransformBuffer{},
		adjacency: map[string]map[string]bool{},
		known:     map[string]bool{},
	}, nil
}

// Observe registers an observer for frame and activity changes.
func (r *Registry) Observe(obs RegistryObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
}

// TFThrottleRate returns the configured broker throttle rate.
func (r *Registry) TFThrottleRate() float64 {
	return r.conf.TFThrottleRate
}

// KnownFrames returns the sorted names of every frame seen so far.
func (r *Registry) KnownFrames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frames := make([]string, 0, len(r.known))
	for name := range r.known {
		frames = append(frames, name)
	}
	sort.Strings(frames)
	return frames
}

// IsActive reports whether any transform has been ingested.
func (r *Registry) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Ingest processes one batch of decoded transform messages. Static
// transforms go into non-evicting buffers and always resolve to their
// latest value. Malformed entries are dropped without failing the batch.
func (r *Registry) Ingest(msgs []TransformStampedMessage, static bool) {
	var dropped error
	var added []StampedTransform
	for _, msg := range msgs {
		tf, err := msg.stampedTransform()
		if err != nil {
			dropped = multierr.Append(dropped, err)
			continue
		}
		added = append(added, tf)
	}
	if dropped != nil {
		r.logger.Debugw("dropped malformed transform messages", "error", dropped)
	}
	if len(added) == 0 {
		return
	}

	r.mu.Lock()
	framesChanged := false
	for _, tf := range added {
		key := pairKey{parent: tf.Parent, child: tf.Child}
		bucket := r.dynamic
		maxAge := r.conf.BufferDuration
		if static {
			bucket = r.static
			maxAge = 0
		}
		buf, ok := bucket[key]
		if !ok {
			buf = NewTransformBuffer(tf.Parent, tf.Child, maxAge)
			bucket[key] = buf
		}
		if err := buf.Insert(tf); err != nil {
			r.logger.Errorw("failed to buffer transform", "error", err)
			continue
		}
		framesChanged = r.noteFrameLocked(tf.Parent) || framesChanged
		framesChanged = r.noteFrameLocked(tf.Child) || framesChanged
		r.linkLocked(tf.Parent, tf.Child)
	}
	activeChanged := !r.active
	r.active = true
	observers := append([]RegistryObserver(nil), r.observers...)
	var frames []string
	if framesChanged {
		frames = make([]string, 0, len(r.known))
		for name := range r.known {
			frames = append(frames, name)
		}
		sort.Strings(frames)
	}
	r.mu.Unlock()

	for _, obs := range observers {
		if framesChanged {
			obs.FramesChanged(frames)
		}
		if activeChanged {
			obs.ActiveChanged(true)
		}
	}
}

func (r *Registry) noteFrameLocked(name string) bool {
	if r.known[name] {
		return false
	}
	r.known[name] = true
	return true
}

func (r *Registry) linkLocked(parent, child string) {
	if r.adjacency[parent] == nil {
		r.adjacency[parent] = map[string]bool{}
	}
	if r.adjacency[child] == nil {
		r.adjacency[child] = map[string]bool{}
	}
	r.adjacency[parent][child] = true
	r.adjacency[child][parent] = true
}

// LookupTransform resolves the transform taking child coordinates into
// parent coordinates at time t (t of zero means latest). The second return
// is false when the pair cannot be resolved from buffered data.
func (r *Registry) LookupTransform(parent, child string, t float64) (StampedTransform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tf, err := r.lookupLocked(parent, child, t)
	if err != nil {
		r.logger.Debugw("transform lookup failed",
			"parent", parent, "child", child, "time", t, "error", err)
		return StampedTransform{}, false
	}
	return tf, true
}

// LatestPose returns the latest planar pose (x, y, yaw) of frame relative
// to reference.
func (r *Registry) LatestPose(frame, reference string) (Pose2D, bool) {
	tf, ok := r.LookupTransform(reference, frame, 0)
	if !ok {
		return Pose2D{}, false
	}
	return PoseFromTransform(tf), true
}

func (r *Registry) lookupLocked(parent, child string, t float64) (StampedTransform, error) {
	if tf, err := r.lookupPairLocked(parent, child, t); err == nil {
		return tf, nil
	}
	if inv, err := r.lookupPairLocked(child, parent, t); err == nil {
		return inv.Invert(), nil
	}

	path, err := r.findPathLocked(child, parent)
	if err != nil {
		return StampedTransform{}, err
	}
	result := IdentityTransform(path[0], t)
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		step, err := r.lookupEdgeLocked(to, from, t)
		if err != nil {
			return StampedTransform{}, err
		}
		result = result.Compose(step)
	}
	result.Child = child
	return result, nil
}

// lookupPairLocked consults the static buffer (latest) then the dynamic
// buffer (at t) for one directed pair.
func (r *Registry) lookupPairLocked(parent, child string, t float64) (StampedTransform, error) {
	key := pairKey{parent: parent, child: child}
	if buf, ok := r.static[key]; ok {
		if tf, err := buf.Latest(); err == nil {
			return tf, nil
		}
	}
	if buf, ok := r.dynamic[key]; ok {
		return buf.Lookup(t)
	}
	return StampedTransform{}, NewNoTransformDataError(parent, child)
}

// lookupEdgeLocked resolves one adjacency edge in the requested direction,
// inverting the stored buffer if only the opposite direction exists.
func (r *Registry) lookupEdgeLocked(parent, child string, t float64) (StampedTransform, error) {
	if tf, err := r.lookupPairLocked(parent, child, t); err == nil {
		return tf, nil
	}
	inv, err := r.lookupPairLocked(child, parent, t)
	if err != nil {
		return StampedTransform{}, err
	}
	return inv.Invert(), nil
}

// findPathLocked runs BFS over the adjacency graph from one frame to
// another, returning the chain of frame names inclusive of both ends.
func (r *Registry) findPathLocked(from, to string) ([]string, error) {
	if !r.known[from] || !r.known[to] {
		return nil, NewNoTransformDataError(to, from)
	}
	if from == to {
		return []string{from}, nil
	}
	parents := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var path []string
			for node := to; node != ""; node = parents[node] {
				path = append(path, node)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, nil
		}
		for next := range r.adjacency[cur] {
			if _, seen := parents[next]; seen {
				continue
			}
			parents[next] = cur
			queue = append(queue, next)
		}
	}
	return nil, NewNoPathError(from, to)
}
