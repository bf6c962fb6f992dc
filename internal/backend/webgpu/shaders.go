package webgpu

// workgroupSize is the number of invocations per workgroup.
const workgroupSize = 256

// conv2dShader computes one NHWC output element per invocation from NHWC
// input and OHWI weights. Dispatch is 2D; row_stride is the number of
// invocations in one dispatch row.
const conv2dShader = `
struct Params {
    n: u32, c: u32, h: u32, w: u32,
    o: u32, kh: u32, kw: u32,
    oh: u32, ow: u32,
    stride_h: u32, stride_w: u32,
    pad_t: u32, pad_l: u32,
    has_bias: u32,
    total: u32,
    row_stride: u32,
}

@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> dst: array<f32>;
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x + gid.y * params.row_stride;
    if (idx >= params.total) {
        return;
    }

    // dst is NHWC: idx = ((n * oh + y) * ow + x) * o + oc
    let oc = idx % params.o;
    var rest = idx / params.o;
    let x = rest % params.ow;
    rest = rest / params.ow;
    let y = rest % params.oh;
    let n = rest / params.oh;

    var sum = 0.0;
    if (params.has_bias != 0u) {
        sum = bias[oc];
    }

    for (var ky = 0u; ky < params.kh; ky++) {
        let iy = i32(y * params.stride_h + ky) - i32(params.pad_t);
        if (iy < 0 || iy >= i32(params.h)) {
            continue;
        }
        for (var kx = 0u; kx < params.kw; kx++) {
            let ix = i32(x * params.stride_w + kx) - i32(params.pad_l);
            if (ix < 0 || ix >= i32(params.w)) {
                continue;
            }
            let s_base = ((n * params.h + u32(iy)) * params.w + u32(ix)) * params.c;
            let w_base = ((oc * params.kh + ky) * params.kw + kx) * params.c;
            for (var ic = 0u; ic < params.c; ic++) {
                sum = sum + src[s_base + ic] * weights[w_base + ic];
            }
        }
    }

    dst[idx] = sum;
}
`
