// Package asset describes a glTF 2.0 scene graph as an in-memory graph of
// typed entities with index cross-references. It is the shared vocabulary
// between the codec (which talks to disk), the arena (which owns the
// storage), and the transformations in package xform.
package asset

import "github.com/go-gl/mathgl/mgl32"

// BufferIndex, BufferViewIndex, ... address an entity by its position in
// the owning Asset's slice of that kind. A required cross-reference is a
// bare index; an optional one is a pointer to an index (nil means None),
// per the sum-type-over-sentinel design note.
type (
	BufferIndex     int32
	BufferViewIndex int32
	AccessorIndex   int32
	ImageIndex      int32
	TextureIndex    int32
	MaterialIndex   int32
	MeshIndex       int32
	NodeIndex       int32
	SceneIndex      int32
)

// ComponentType is the storage type of one scalar lane of an accessor
// element, matching the glTF accessor.componentType enum.
type ComponentType int

const (
	ComponentI8 ComponentType = iota
	ComponentU8
	ComponentI16
	ComponentU16
	ComponentU32
	ComponentF32
)

// Size returns the byte size of a single component of this type.
func (c ComponentType) Size() int {
	switch c {
	case ComponentI8, ComponentU8:
		return 1
	case ComponentI16, ComponentU16:
		return 2
	case ComponentU32, ComponentF32:
		return 4
	default:
		return 0
	}
}

// ElementType is the shape of one accessor element (scalar, vecN, matN).
type ElementType int

const (
	ElementScalar ElementType = iota
	ElementVec2
	ElementVec3
	ElementVec4
	ElementMat2
	ElementMat3
	ElementMat4
)

// NumComponents returns how many scalar lanes make up one element.
func (e ElementType) NumComponents() int {
	switch e {
	case ElementScalar:
		return 1
	case ElementVec2:
		return 2
	case ElementVec3:
		return 3
	case ElementVec4:
		return 4
	case ElementMat2:
		return 4
	case ElementMat3:
		return 9
	case ElementMat4:
		return 16
	default:
		return 0
	}
}

// Semantic is a vertex attribute's channel identity.
type Semantic int

const (
	SemanticPosition Semantic = iota
	SemanticNormal
	SemanticTangent
	SemanticTexcoord
	SemanticColor
	SemanticJoints
	SemanticWeights
	SemanticCustom
)

// Topology is a primitive's draw mode. Only Triangles is baked by the
// flattener when FILTER_TRIANGLES is set; other topologies pass through
// untouched when the flag is clear.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	LineLoop
	Points
)

// BufferUsage tags a buffer view's intended GPU binding, purely
// informational for the transformations but preserved end to end.
type BufferUsage int

const (
	UsageNone BufferUsage = iota
	UsageVertex
	UsageIndex
)

// Buffer is a raw byte blob.
type Buffer struct {
	Data []byte
}

func (b *Buffer) Size() int { return len(b.Data) }

// BufferView is a byte range within a Buffer, with an optional stride
// (0 means packed) and usage tag.
type BufferView struct {
	Buffer     BufferIndex
	ByteOffset int
	ByteLength int
	ByteStride int // 0 == packed
	Usage      BufferUsage
}

// Accessor is a typed view over a byte range within a BufferView,
// exposing Count elements of ElementType built from Component lanes of
// ComponentType.
type Accessor struct {
	View          BufferViewIndex
	ByteOffset    int
	ComponentType ComponentType
	Normalized    bool
	ElementType   ElementType
	Count         int
	Stride        int // 0 == packed (ElementType.NumComponents() * ComponentType.Size())
	HasMin        bool
	HasMax        bool
	Min           [16]float64
	Max           [16]float64
	Sparse        bool
}

// EffectiveStride returns the accessor's byte stride between elements,
// substituting the packed element size when Stride is unset.
func (a *Accessor) EffectiveStride() int {
	if a.Stride != 0 {
		return a.Stride
	}
	return a.ElementType.NumComponents() * a.ComponentType.Size()
}

// Attribute is a named vertex channel on a primitive.
type Attribute struct {
	Semantic      Semantic
	SemanticIndex int // e.g. TEXCOORD_<index>, COLOR_<index>
	CustomName    string
	Accessor      AccessorIndex
}

// Primitive is one draw call's worth of geometry. Indices is optional:
// a non-indexed primitive (Indices == nil) is never eligible for
// flattening (spec: "has an index accessor with no sparse storage").
type Primitive struct {
	Topology   Topology
	Indices    *AccessorIndex
	Material   *MaterialIndex
	Attributes []Attribute
}

// AttributeBySemantic returns the first attribute matching semantic and
// semanticIndex, or nil.
func (p *Primitive) AttributeBySemantic(semantic Semantic, semanticIndex int) *Attribute {
	for i := range p.Attributes {
		attr := &p.Attributes[i]
		if attr.Semantic == semantic && attr.SemanticIndex == semanticIndex {
			return attr
		}
	}
	return nil
}

// Mesh is an ordered, named list of primitives.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// Transform is a node's local transform, either an explicit matrix or a
// TRS triple, mirroring glTF's node.matrix / node.translation+rotation+scale
// duality.
type Transform struct {
	HasMatrix   bool
	Matrix      mgl32.Mat4
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns a TRS transform equal to the identity.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Local returns the 4x4 local transform matrix, resolving TRS to a
// matrix when HasMatrix is false.
func (t *Transform) Local() mgl32.Mat4 {
	if t.HasMatrix {
		return t.Matrix
	}
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Node is a scene-graph node: a local transform, an optional mesh, and
// child node references.
type Node struct {
	Name      string
	Transform Transform
	Mesh      *MeshIndex
	Children  []NodeIndex
}

// Scene is a named list of root node references.
type Scene struct {
	Name  string
	Roots []NodeIndex
}

// Image is either a URI on disk or a view into a buffer holding the
// encoded image bytes.
type Image struct {
	Name string
	URI  string
	View *BufferViewIndex
}

// Sampler is a texture's wrap/filter configuration.
type Sampler struct {
	WrapS      int
	WrapT      int
	MagNearest bool
	MinNearest bool
}

// Texture pairs an image with a sampler.
type Texture struct {
	Name    string
	Image   ImageIndex
	Sampler Sampler
}

// TextureRef is an optional reference to one of a material's texture
// slots, together with the UV set it samples.
type TextureRef struct {
	Texture       TextureIndex
	TexCoordIndex int
}

// Material carries up to seven optional texture slots.
type Material struct {
	Name string

	BaseColor          *TextureRef
	MetallicRoughness  *TextureRef
	Diffuse            *TextureRef
	SpecularGlossiness *TextureRef
	Normal             *TextureRef
	Occlusion          *TextureRef
	Emissive           *TextureRef

	BaseColorFactor [4]float32
	DoubleSided     bool
}

// TextureSlots returns pointers to each of a material's seven optional
// texture slots, in the order the coalescer and codec iterate them.
func (m *Material) TextureSlots() []**TextureRef {
	return []**TextureRef{
		&m.BaseColor, &m.MetallicRoughness, &m.Diffuse,
		&m.SpecularGlossiness, &m.Normal, &m.Occlusion, &m.Emissive,
	}
}

// Asset is a complete glTF scene graph: top-level entity arrays plus a
// designated root scene and a generator tag.
type Asset struct {
	Generator string

	Buffers     []Buffer
	BufferViews []BufferView
	Accessors   []Accessor
	Images      []Image
	Textures    []Texture
	Materials   []Material
	Meshes      []Mesh
	Nodes       []Node
	Scenes      []Scene

	Scene SceneIndex
}
