package ai

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
)

// NetModel runs a classifier network loaded through OpenCV's dnn module.
// The network is shared; SetInput and Forward are serialized per call.
type NetModel struct {
	net           gocv.Net
	mu            sync.Mutex
	modelPath     string
	channelsFirst bool
	logger        *logger.Logger
}

// NetOption configures a NetModel.
type NetOption func(*NetModel)

// WithChannelsFirst feeds the network NCHW input instead of NHWC.
func WithChannelsFirst() NetOption {
	return func(m *NetModel) {
		m.channelsFirst = true
	}
}

// LoadNetModel reads the network at modelPath. configPath may be empty for
// self-contained formats such as ONNX.
func LoadNetModel(modelPath, configPath string, log *logger.Logger, opts ...NetOption) (*NetModel, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("model config file not found: %s", configPath)
		}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	m := &NetModel{
		net:       net,
		modelPath: modelPath,
		logger:    log,
	}
	for _, opt := range opts {
		opt(m)
	}

	if log != nil {
		log.Info("Classifier network loaded from %s", modelPath)
	}
	return m, nil
}

// Predict returns the raw output vector for one preprocessed image.
func (m *NetModel) Predict(input *model.Tensor) ([]float32, error) {
	if input == nil || input.Batch() != 1 || input.Channels() != 3 {
		return nil, fmt.Errorf("%w: expected a single 3-channel image tensor", model.ErrModelInvocationFailed)
	}

	sizes := input.Shape
	data := input.Data
	if m.channelsFirst {
		sizes = []int{1, 3, input.Height(), input.Width()}
		data = toChannelsFirst(input)
	}

	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, float32Bytes(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build input blob: %w", model.ErrModelInvocationFailed, err)
	}
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	if output.Empty() || output.Total() == 0 {
		return nil, fmt.Errorf("%w: network produced no output", model.ErrModelInvocationFailed)
	}

	flat := output.Reshape(1, 1)
	defer flat.Close()

	scores := make([]float32, flat.Cols())
	for i := range scores {
		scores[i] = flat.GetFloatAt(0, i)
	}
	return scores, nil
}

// Close releases the network.
func (m *NetModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

func toChannelsFirst(t *model.Tensor) []float32 {
	h, w := t.Height(), t.Width()
	out := make([]float32, len(t.Data))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				out[c*h*w+y*w+x] = t.Data[(y*w+x)*3+c]
			}
		}
	}
	return out
}

func float32Bytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
