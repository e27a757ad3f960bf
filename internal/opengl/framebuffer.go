package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"pbr-renderer/gpu"
)

func (d *Device) CreateFramebuffer() gpu.Framebuffer {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return gpu.Framebuffer(id)
}

func (d *Device) DeleteFramebuffer(fb gpu.Framebuffer) {
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
	if d.bound == fb {
		d.BindFramebuffer(gpu.DefaultFramebuffer)
	}
}

// withFramebuffer binds fb for the duration of fn and then restores the
// framebuffer the renderer last bound.
func (d *Device) withFramebuffer(fb gpu.Framebuffer, fn func()) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	fn()
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.bound))
}

func glAttachment(at gpu.Attachment) uint32 {
	if at == gpu.DepthAttachment {
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(at)
}

func (d *Device) AttachTexture(fb gpu.Framebuffer, at gpu.Attachment, tex gpu.Texture, face gpu.Face, level int) {
	texTarget := uint32(gl.TEXTURE_2D)
	if face != gpu.NoFace {
		texTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
	}
	d.withFramebuffer(fb, func() {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, glAttachment(at), texTarget, uint32(tex), int32(level))
	})
}

func (d *Device) AttachRenderbuffer(fb gpu.Framebuffer, rb gpu.Renderbuffer) {
	d.withFramebuffer(fb, func() {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, uint32(rb))
	})
}

func (d *Device) SetDrawBuffers(fb gpu.Framebuffer, n int) {
	d.withFramebuffer(fb, func() {
		if n == 0 {
			gl.DrawBuffer(gl.NONE)
			gl.ReadBuffer(gl.NONE)
			return
		}
		bufs := make([]uint32, n)
		for i := range bufs {
			bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		}
		gl.DrawBuffers(int32(n), &bufs[0])
	})
}

func (d *Device) CheckFramebuffer(fb gpu.Framebuffer) error {
	var status uint32
	d.withFramebuffer(fb, func() {
		status = gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	})
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: framebuffer %d status=0x%X", gpu.ErrIncompleteFramebuffer, fb, status)
	}
	return nil
}

func (d *Device) BindFramebuffer(fb gpu.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	d.bound = fb
}

func glMask(mask gpu.BufferMask) uint32 {
	var bits uint32
	if mask&gpu.ColorBuffer != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.DepthBuffer != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	return bits
}

func (d *Device) Clear(mask gpu.BufferMask, color [4]float32) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	if mask&gpu.DepthBuffer != 0 {
		// glClear honours the depth write mask
		gl.DepthMask(true)
		defer gl.DepthMask(d.depthWrite)
	}
	gl.Clear(glMask(mask))
}

func (d *Device) Blit(src, dst gpu.Framebuffer, srcW, srcH, dstW, dstH int, mask gpu.BufferMask) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(src))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, uint32(dst))
	gl.BlitFramebuffer(0, 0, int32(srcW), int32(srcH), 0, 0, int32(dstW), int32(dstH), glMask(mask), gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.bound))
}

func (d *Device) ReadPixels(fb gpu.Framebuffer, width, height int) []uint8 {
	pixels := make([]uint8, width*height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(fb))
	if fb == gpu.DefaultFramebuffer {
		gl.ReadBuffer(gl.BACK)
	} else {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.bound))
	return pixels
}
