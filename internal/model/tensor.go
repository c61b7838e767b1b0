package model

// Tensor is a dense float32 batch in NHWC layout.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Batch returns the leading (batch) dimension.
func (t *Tensor) Batch() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// Height returns the spatial height, or 0 for a malformed tensor.
func (t *Tensor) Height() int {
	if len(t.Shape) < 4 {
		return 0
	}
	return t.Shape[1]
}

// Width returns the spatial width, or 0 for a malformed tensor.
func (t *Tensor) Width() int {
	if len(t.Shape) < 4 {
		return 0
	}
	return t.Shape[2]
}

// Channels returns the channel count, or 0 for a malformed tensor.
func (t *Tensor) Channels() int {
	if len(t.Shape) < 4 {
		return 0
	}
	return t.Shape[3]
}
