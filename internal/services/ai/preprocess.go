package ai

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"weatherclassifier/internal/model"
)

// DefaultImageSize is the square edge length the classifier was trained on.
const DefaultImageSize = 224

// Preprocessor loads an image from disk and produces a [1, size, size, 3] RGB tensor in [0, 1].
type Preprocessor struct {
	size int
}

// NewPreprocessor creates a Preprocessor resizing to size x size pixels.
func NewPreprocessor(size int) *Preprocessor {
	if size <= 0 {
		size = DefaultImageSize
	}
	return &Preprocessor{size: size}
}

// Size returns the edge length images are resized to.
func (p *Preprocessor) Size() int {
	return p.size
}

// Preprocess decodes the file at path, converts it to RGB, resizes it with Lanczos
// interpolation and scales pixel values into [0, 1].
func (p *Preprocessor) Preprocess(path string) (*model.Tensor, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrImageNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrImageUnreadable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", model.ErrImageNotFound, path)
	}

	src := gocv.IMRead(path, gocv.IMReadColor)
	defer src.Close()

	if src.Empty() {
		return nil, fmt.Errorf("%w: %s", model.ErrImageUnreadable, path)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, fmt.Errorf("%w: failed to convert %s to RGB: %w", model.ErrImageUnreadable, path, err)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(rgb, &resized, image.Pt(p.size, p.size), 0, 0, gocv.InterpolationLanczos4)
	if resized.Empty() || resized.Rows() != p.size || resized.Cols() != p.size {
		return nil, fmt.Errorf("%w: failed to resize %s", model.ErrImageUnreadable, path)
	}

	pixels := resized.ToBytes()
	if len(pixels) != p.size*p.size*3 {
		return nil, fmt.Errorf("%w: unexpected pixel buffer size %d", model.ErrImageUnreadable, len(pixels))
	}

	data := make([]float32, len(pixels))
	for i, v := range pixels {
		data[i] = float32(v) / 255.0
	}

	return &model.Tensor{
		Shape: []int{1, p.size, p.size, 3},
		Data:  data,
	}, nil
}
