package asset

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32bytes(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func TestReadFloatPacked(t *testing.T) {
	var data []byte
	data = append(data, f32bytes(1)...)
	data = append(data, f32bytes(2)...)
	data = append(data, f32bytes(3)...)

	a := &Asset{
		Buffers:     []Buffer{{Data: data}},
		BufferViews: []BufferView{{Buffer: 0, ByteOffset: 0, ByteLength: len(data)}},
		Accessors:   []Accessor{{View: 0, ComponentType: ComponentF32, ElementType: ElementVec3, Count: 1}},
	}

	out := make([]float32, 3)
	if err := a.ReadFloat(&a.Accessors[0], 0, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Errorf("ReadFloat = %v, want [1 2 3]", out)
	}
}

func TestReadFloatNormalizedWidening(t *testing.T) {
	cases := []struct {
		name string
		ct   ComponentType
		data []byte
		want float32
	}{
		{"u8", ComponentU8, []byte{255}, 1.0},
		{"u8-zero", ComponentU8, []byte{0}, 0.0},
		{"i8-min", ComponentI8, []byte{0x80}, -1.0}, // -128 clamps to -1
		{"u16-max", ComponentU16, []byte{0xff, 0xff}, 1.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := &Asset{
				Buffers:     []Buffer{{Data: c.data}},
				BufferViews: []BufferView{{Buffer: 0, ByteLength: len(c.data)}},
				Accessors:   []Accessor{{View: 0, ComponentType: c.ct, Normalized: true, ElementType: ElementScalar, Count: 1}},
			}
			out := make([]float32, 1)
			if err := a.ReadFloat(&a.Accessors[0], 0, out); err != nil {
				t.Fatal(err)
			}
			if out[0] != c.want {
				t.Errorf("ReadFloat(%s) = %v, want %v", c.name, out[0], c.want)
			}
		})
	}
}

func TestReadIndexWidensUnsignedTypes(t *testing.T) {
	cases := []struct {
		ct   ComponentType
		data []byte
		want uint32
	}{
		{ComponentU8, []byte{200}, 200},
		{ComponentU16, []byte{0x34, 0x12}, 0x1234},
		{ComponentU32, []byte{0x78, 0x56, 0x34, 0x12}, 0x12345678},
	}
	for _, c := range cases {
		a := &Asset{
			Buffers:     []Buffer{{Data: c.data}},
			BufferViews: []BufferView{{Buffer: 0, ByteLength: len(c.data)}},
			Accessors:   []Accessor{{View: 0, ComponentType: c.ct, ElementType: ElementScalar, Count: 1}},
		}
		got, err := a.ReadIndex(&a.Accessors[0], 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("ReadIndex(%v) = %d, want %d", c.ct, got, c.want)
		}
	}
}

func TestReadFloatRejectsTooManyLanes(t *testing.T) {
	a := &Asset{
		Buffers:     []Buffer{{Data: make([]byte, 12)}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: 12}},
		Accessors:   []Accessor{{View: 0, ComponentType: ComponentF32, ElementType: ElementVec3, Count: 1}},
	}
	if err := a.ReadFloat(&a.Accessors[0], 0, make([]float32, 4)); err == nil {
		t.Error("ReadFloat with 4 lanes on a Vec3 accessor did not error")
	}
}
