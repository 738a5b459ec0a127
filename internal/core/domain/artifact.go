package domain

// Artifact is the binary payload produced by a capture provider.
type Artifact struct {
	Data        []byte
	ContentType string
}

// Empty reports whether the provider returned no usable payload.
func (a *Artifact) Empty() bool {
	return a == nil || len(a.Data) == 0
}

// CaptureResult is what a capture provider hands back: the artifact plus a
// human-readable trace of the steps it took to produce it.
type CaptureResult struct {
	Artifact *Artifact
	Steps    []string
}

// StreamHandle identifies a live media stream held by the stream provider.
// Clone returns a new handle; the provider attaches its interaction
// listeners to the clone as a side effect.
type StreamHandle struct {
	ID        string   `json:"id"`
	Source    string   `json:"source,omitempty"`
	Listeners []string `json:"listeners,omitempty"`
}
