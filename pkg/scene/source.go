package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/taigrr/tiltframe/pkg/models"
	"github.com/taigrr/tiltframe/pkg/render"
)

// ErrNilImage is returned by an ImageSource holding no image.
var ErrNilImage = errors.New("scene: nil source image")

// Source supplies the template texture for a frame.
type Source interface {
	Texture(ctx context.Context) (*render.Texture, error)
}

type fileSource string

// FileSource loads the texture from a PNG or JPEG file, or from the first
// image of a glTF/GLB file.
func FileSource(path string) Source {
	return fileSource(path)
}

func (f fileSource) Texture(ctx context.Context) (*render.Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := string(f)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		img, err := models.LoadGLBTexture(path)
		if err != nil {
			return nil, err
		}
		return render.TextureFromImage(img), nil
	default:
		return render.LoadTexture(path)
	}
}

type imageSource struct {
	img image.Image
}

// ImageSource uses an already decoded image. The image is copied on each
// call, so later changes to it do not affect rendered frames.
func ImageSource(img image.Image) Source {
	return imageSource{img: img}
}

func (s imageSource) Texture(ctx context.Context) (*render.Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.img == nil {
		return nil, ErrNilImage
	}
	b := s.img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("scene: empty source image %v", b)
	}
	return render.TextureFromImage(s.img), nil
}
