package asset

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// elementOffset returns the byte offset of the index-th element of accessor
// a within a's asset, chaining accessor offset, view offset, and effective
// stride, per spec: accessor.offset + view.offset + index*stride.
func (a *Asset) elementOffset(acc *Accessor, index int) (int, *BufferView, error) {
	if int(acc.View) < 0 || int(acc.View) >= len(a.BufferViews) {
		return 0, nil, errors.Errorf("accessor references out-of-range buffer view %d", acc.View)
	}
	view := &a.BufferViews[acc.View]
	if int(view.Buffer) < 0 || int(view.Buffer) >= len(a.Buffers) {
		return 0, nil, errors.Errorf("buffer view references out-of-range buffer %d", view.Buffer)
	}
	offset := acc.ByteOffset + view.ByteOffset + index*acc.EffectiveStride()
	return offset, view, nil
}

func (a *Asset) componentBytes(offset int, view *BufferView) ([]byte, error) {
	buf := &a.Buffers[view.Buffer]
	if offset < 0 || offset > len(buf.Data) {
		return nil, errors.Errorf("component offset %d out of range for buffer of size %d", offset, len(buf.Data))
	}
	return buf.Data[offset:], nil
}

// readComponentFloat widens a single scalar lane at data[0:] according to
// componentType, applying the glTF normalized-integer rule when normalized
// is true (non-normalized integers are simply converted, matching
// cgltf_accessor_read_float's behavior for the source's declared type).
func readComponentFloat(data []byte, ct ComponentType, normalized bool) float32 {
	switch ct {
	case ComponentF32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data))
	case ComponentI8:
		v := int8(data[0])
		if normalized {
			f := float32(v) / 127.0
			if f < -1 {
				f = -1
			}
			return f
		}
		return float32(v)
	case ComponentU8:
		v := data[0]
		if normalized {
			return float32(v) / 255.0
		}
		return float32(v)
	case ComponentI16:
		v := int16(binary.LittleEndian.Uint16(data))
		if normalized {
			f := float32(v) / 32767.0
			if f < -1 {
				f = -1
			}
			return f
		}
		return float32(v)
	case ComponentU16:
		v := binary.LittleEndian.Uint16(data)
		if normalized {
			return float32(v) / 65535.0
		}
		return float32(v)
	case ComponentU32:
		return float32(binary.LittleEndian.Uint32(data))
	default:
		return 0
	}
}

// ReadFloat writes n float32 lanes of the index-th element of accessor acc
// into out, widening from the accessor's declared component type according
// to the normalized/non-normalized rule it carries. n must not exceed the
// element's component count.
func (a *Asset) ReadFloat(acc *Accessor, index int, out []float32) error {
	n := len(out)
	if n > acc.ElementType.NumComponents() {
		return errors.Errorf("requested %d lanes but accessor element has %d", n, acc.ElementType.NumComponents())
	}
	offset, view, err := a.elementOffset(acc, index)
	if err != nil {
		return err
	}
	data, err := a.componentBytes(offset, view)
	if err != nil {
		return err
	}
	size := acc.ComponentType.Size()
	for i := 0; i < n; i++ {
		lane := data[i*size:]
		out[i] = readComponentFloat(lane, acc.ComponentType, acc.Normalized)
	}
	return nil
}

// ReadFloatMat widens a full mat2/mat3/mat4 element into out, lanes in
// the accessor's storage order (column-major, as glTF stores matrices);
// len(out) may be at most ElementType.NumComponents().
func (a *Asset) ReadFloatMat(acc *Accessor, index int, out []float32) error {
	switch acc.ElementType {
	case ElementMat2, ElementMat3, ElementMat4:
		return a.ReadFloat(acc, index, out)
	default:
		return errors.Errorf("ReadFloatMat called on non-matrix accessor (%v)", acc.ElementType)
	}
}

// ReadIndex widens the index-th element of accessor acc to a uint32. It
// fails if acc's element type is not scalar.
func (a *Asset) ReadIndex(acc *Accessor, index int) (uint32, error) {
	if acc.ElementType != ElementScalar {
		return 0, errors.Errorf("ReadIndex requires a scalar accessor, got %v", acc.ElementType)
	}
	offset, view, err := a.elementOffset(acc, index)
	if err != nil {
		return 0, err
	}
	data, err := a.componentBytes(offset, view)
	if err != nil {
		return 0, err
	}
	switch acc.ComponentType {
	case ComponentU8:
		return uint32(data[0]), nil
	case ComponentU16:
		return uint32(binary.LittleEndian.Uint16(data)), nil
	case ComponentU32:
		return binary.LittleEndian.Uint32(data), nil
	case ComponentI8:
		return uint32(int8(data[0])), nil
	case ComponentI16:
		return uint32(int16(binary.LittleEndian.Uint16(data))), nil
	default:
		return 0, errors.Errorf("unsupported index component type %v", acc.ComponentType)
	}
}
