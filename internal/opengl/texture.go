package opengl

import (
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"pbr-renderer/gpu"
)

type formatInfo struct {
	internal int32
	format   uint32
	xtype    uint32
}

var formats = map[gpu.Format]formatInfo{
	gpu.RGBA32F:  {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	gpu.RGB32F:   {gl.RGB32F, gl.RGB, gl.FLOAT},
	gpu.RG16F:    {gl.RG16F, gl.RG, gl.FLOAT},
	gpu.R32F:     {gl.R32F, gl.RED, gl.FLOAT},
	gpu.RGBA16F:  {gl.RGBA16F, gl.RGBA, gl.FLOAT},
	gpu.RGBA8:    {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.Depth24:  {gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT},
	gpu.Depth32F: {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
}

func glTarget(t gpu.Target) uint32 {
	if t == gpu.TextureCube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func glFilter(f gpu.Filter) int32 {
	switch f {
	case gpu.Nearest:
		return gl.NEAREST
	case gpu.LinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

func glWrap(w gpu.Wrap) int32 {
	switch w {
	case gpu.Repeat:
		return gl.REPEAT
	case gpu.ClampToBorder:
		return gl.CLAMP_TO_BORDER
	}
	return gl.CLAMP_TO_EDGE
}

// CreateTexture allocates every mip level of a 2D or cube texture. Only
// level 0 of a 2D texture receives pixel data.
func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Texture {
	info := formats[desc.Format]
	target := glTarget(desc.Target)
	levels := desc.MipLevels()

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(target, id)

	for level := 0; level < levels; level++ {
		w := int32(max(desc.Width>>level, 1))
		h := int32(max(desc.Height>>level, 1))

		if desc.Target == gpu.TextureCube {
			for face := uint32(0); face < 6; face++ {
				gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, int32(level), info.internal, w, h, 0, info.format, info.xtype, nil)
			}
			continue
		}

		var pixels unsafe.Pointer
		if level == 0 && len(desc.Pixels) > 0 {
			pixels = gl.Ptr(desc.Pixels)
		}
		gl.TexImage2D(gl.TEXTURE_2D, int32(level), info.internal, w, h, 0, info.format, info.xtype, pixels)
	}

	gl.TexParameteri(target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, glFilter(desc.MinFilter))
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, glFilter(desc.MagFilter))
	wrap := glWrap(desc.Wrap)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap)
	if desc.Wrap == gpu.ClampToBorder {
		border := desc.Border
		gl.TexParameterfv(target, gl.TEXTURE_BORDER_COLOR, &border[0])
	}

	gl.BindTexture(target, 0)
	return gpu.Texture(id)
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) GenerateMipmap(target gpu.Target, tex gpu.Texture) {
	t := glTarget(target)
	gl.BindTexture(t, uint32(tex))
	gl.GenerateMipmap(t)
	gl.BindTexture(t, 0)
}

func (d *Device) CreateRenderbuffer(format gpu.Format, width, height int) gpu.Renderbuffer {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	d.ResizeRenderbuffer(gpu.Renderbuffer(id), format, width, height)
	return gpu.Renderbuffer(id)
}

func (d *Device) ResizeRenderbuffer(rb gpu.Renderbuffer, format gpu.Format, width, height int) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, uint32(rb))
	gl.RenderbufferStorage(gl.RENDERBUFFER, uint32(formats[format].internal), int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
}

func (d *Device) DeleteRenderbuffer(rb gpu.Renderbuffer) {
	id := uint32(rb)
	gl.DeleteRenderbuffers(1, &id)
}
