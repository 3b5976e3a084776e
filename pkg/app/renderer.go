package app

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/particlefx/pkg/components"
	"github.com/gonewx/particlefx/pkg/ecs"
)

// maxQuadsPerBatch DrawTriangles 使用 uint16 索引，每批最多 65535 个顶点
const maxQuadsPerBatch = 65535 / 4

// additiveBlend 加法混合模式（用于发光效果，如尾焰、火花）
var additiveBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorOne,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// Camera 把世界坐标（y 向上）映射到屏幕坐标（y 向下）
type Camera struct {
	ScreenHeight float32
}

// ToScreen 世界坐标转屏幕坐标
func (c Camera) ToScreen(p mgl32.Vec2) (float32, float32) {
	return p.X(), c.ScreenHeight - p.Y()
}

// ParticleRenderer 把粒子批量绘制为三角形
//
// 每个粒子是一个随粒子旋转的矩形：
//   - streak: 宽 Scale.X，长 Scale.Y-Scale.X，从当前位置沿前向反方向拖尾
//   - quad: 边长 Scale.X 的正方形
//
// 先绘制普通混合的粒子，再绘制加法混合的粒子。
type ParticleRenderer struct {
	EntityManager *ecs.EntityManager
	Camera        Camera

	white    *ebiten.Image
	vertices [2][]ebiten.Vertex
	indices  [2][]uint16
	query    *ecs.Query
}

// NewParticleRenderer 创建粒子渲染器
func NewParticleRenderer(em *ecs.EntityManager, camera Camera) *ParticleRenderer {
	return &ParticleRenderer{
		EntityManager: em,
		Camera:        camera,
		query: ecs.NewQuery().WithAll(
			ecs.TypeOf[*components.ParticleComponent](),
			ecs.TypeOf[*components.TransformComponent](),
			ecs.TypeOf[*components.ScaleComponent](),
			ecs.TypeOf[*components.BaseColorComponent](),
		),
	}
}

// Draw 绘制所有粒子
func (r *ParticleRenderer) Draw(screen *ebiten.Image) {
	if r.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		r.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	r.vertices[0], r.vertices[1] = r.vertices[0][:0], r.vertices[1][:0]
	r.indices[0], r.indices[1] = r.indices[0][:0], r.indices[1][:0]

	em := r.EntityManager
	for _, id := range em.Query(r.query) {
		transform, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		scale, _ := ecs.GetComponent[*components.ScaleComponent](em, id)
		baseColor, _ := ecs.GetComponent[*components.BaseColorComponent](em, id)

		shape, batch := "streak", 0
		if render, ok := ecs.GetComponent[*components.ParticleRenderComponent](em, id); ok {
			shape = render.Shape
			if render.Additive {
				batch = 1
			}
		}

		if len(r.vertices[batch])/4 >= maxQuadsPerBatch {
			r.flush(screen, batch)
		}
		corners := particleCorners(shape, transform, scale.Value)
		r.vertices[batch], r.indices[batch] = appendQuad(r.vertices[batch], r.indices[batch], corners, r.Camera, baseColor.Value)
	}

	r.flush(screen, 0)
	r.flush(screen, 1)
}

func (r *ParticleRenderer) flush(screen *ebiten.Image, batch int) {
	if len(r.indices[batch]) == 0 {
		return
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	if batch == 1 {
		op.Blend = additiveBlend
	}
	screen.DrawTriangles(r.vertices[batch], r.indices[batch], r.white, op)
	r.vertices[batch] = r.vertices[batch][:0]
	r.indices[batch] = r.indices[batch][:0]
}

// particleCorners 计算粒子矩形的四个世界坐标角点
// 顺序：左后、右后、左前、右前
func particleCorners(shape string, transform *components.TransformComponent, scale mgl32.Vec3) [4]mgl32.Vec2 {
	halfWidth := scale.X() / 2

	var back, front float32
	if shape == "quad" {
		back, front = -halfWidth, halfWidth
	} else {
		back, front = -(scale.Y() - scale.X()), 0
	}

	local := [4]mgl32.Vec3{
		{-halfWidth, back, 0},
		{halfWidth, back, 0},
		{-halfWidth, front, 0},
		{halfWidth, front, 0},
	}

	var corners [4]mgl32.Vec2
	for i, p := range local {
		w := transform.Rotation.Rotate(p)
		corners[i] = mgl32.Vec2{transform.Position.X() + w.X(), transform.Position.Y() + w.Y()}
	}
	return corners
}

// appendQuad 追加一个矩形的 4 个顶点和 6 个索引
// 顶点颜色使用预乘 alpha
func appendQuad(vs []ebiten.Vertex, is []uint16, corners [4]mgl32.Vec2, camera Camera, c mgl32.Vec4) ([]ebiten.Vertex, []uint16) {
	a := mgl32.Clamp(c.W(), 0, 1)
	base := uint16(len(vs))

	for _, p := range corners {
		x, y := camera.ToScreen(p)
		vs = append(vs, ebiten.Vertex{
			DstX:   x,
			DstY:   y,
			SrcX:   1,
			SrcY:   1,
			ColorR: mgl32.Clamp(c.X(), 0, 1) * a,
			ColorG: mgl32.Clamp(c.Y(), 0, 1) * a,
			ColorB: mgl32.Clamp(c.Z(), 0, 1) * a,
			ColorA: a,
		})
	}

	is = append(is,
		base+0, base+1, base+2, // 第一个三角形
		base+1, base+3, base+2, // 第二个三角形
	)
	return vs, is
}
