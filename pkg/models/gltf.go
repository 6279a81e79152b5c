package models

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/tiltframe/pkg/math3d"
)

// ErrNoImage is returned when a glTF document carries no decodable image.
var ErrNoImage = errors.New("models: no image in glTF document")

// LoadGLB loads the triangle geometry of a glTF or GLB file. Texture
// coordinates stay normalized; see Mesh.ScaleUV.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return meshFromDocument(doc, filepath.Base(path))
}

// LoadGLBTexture returns the first image of a glTF or GLB file that
// decodes, whether embedded in a buffer view or referenced by a URI
// relative to the file.
func LoadGLBTexture(path string) (image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return firstImage(doc, filepath.Dir(path))
}

// LoadGLBWithTexture loads both the geometry and the first image, with the
// mesh's texture coordinates scaled to that image's pixels.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}
	img, err := firstImage(doc, filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	mesh, err := meshFromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	mesh.ScaleUV(b.Dx(), b.Dy())
	return mesh, img, nil
}

func meshFromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	for _, m := range doc.Meshes {
		if err := processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// processMesh appends the triangle primitives of m. glTF winds front faces
// counter-clockwise and puts the texture origin top left, the same as the
// template quad, so faces and UVs are taken as is.
func processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			acc, err := accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
			// Normalized ubyte and ushort coordinates come back in [0, 1].
			uvs, err = modeler.ReadTextureCoord(doc, acc, nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
			if i < len(uvs) {
				v.UV = math3d.V2(float64(uvs[i][0]), float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			acc, err := accessor(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			indices, err = modeler.ReadIndices(doc, acc, nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		for i := 0; i+2 < len(indices); i += 3 {
			var f Face
			for k, idx := range indices[i : i+3] {
				if int(idx) >= len(positions) {
					return fmt.Errorf("index %d out of range", idx)
				}
				f.V[k] = base + int(idx)
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	return nil
}

// accessor returns accessor idx after checking that it and its buffer
// view exist, so malformed files fail with an error instead of a panic.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return acc, nil
	}
	bv := *acc.BufferView
	if bv < 0 || bv >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d: buffer view %d out of range", idx, bv)
	}
	if acc.ByteOffset > doc.BufferViews[bv].ByteLength {
		return nil, fmt.Errorf("accessor %d: offset exceeds buffer view", idx)
	}
	return acc, nil
}

// imageData returns the encoded bytes of img: a buffer view, a data URI,
// or a file relative to dir.
func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		bv := *img.BufferView
		if bv < 0 || bv >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", bv)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[bv])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		return os.ReadFile(filepath.Join(dir, img.URI))
	}
	return nil, nil
}

// firstImage decodes the first usable image of doc. Images that fail to
// load or decode are skipped.
func firstImage(doc *gltf.Document, dir string) (image.Image, error) {
	for _, img := range doc.Images {
		data, err := imageData(doc, img, dir)
		if err != nil || len(data) == 0 {
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err == nil {
			return decoded, nil
		}
	}
	return nil, ErrNoImage
}
