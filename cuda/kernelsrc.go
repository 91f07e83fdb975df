package cuda

import "fmt"

// unarySource renders a one-input, one-output elementwise kernel. expr is
// the C expression computing out[i] from inp[i] (e.g. "log2(inp[i])").
func unarySource(kernelName, expr string) string {
	return fmt.Sprintf(`
extern "C" __global__ void %s(float *out, const float *inp, int numel) {
    int i = blockIdx.x * blockDim.x + threadIdx.x;
    if (i < numel) {
        out[i] = %s;
    }
}`, kernelName, expr)
}

func log2Source() string  { return unarySource("log2_kernel", "log2(inp[i])") }
func exp2Source() string  { return unarySource("exp2_kernel", "exp2(inp[i])") }
func sinSource() string   { return unarySource("sin_kernel", "sin(inp[i])") }
func sqrtSource() string  { return unarySource("sqrt_kernel", "sqrt(inp[i])") }
func recipSource() string { return unarySource("recip_kernel", "1.0 / inp[i]") }

// binarySource renders a two-input, one-output elementwise kernel. expr
// computes out[idx] from a[a_idx] and b[b_idx]; aIdxExpr/bIdxExpr are each
// operand's stringified shapetracker index expression over the free
// variable idx, so a broadcast or permuted operand reads the right
// physical element without being densified first.
func binarySource(kernelName, aIdxExpr, bIdxExpr, expr string) string {
	return fmt.Sprintf(`
extern "C" __global__ void %s(float *out, const float *a, const float *b, int numel) {
    int idx = blockIdx.x * blockDim.x + threadIdx.x;
    int a_idx = %s;
    int b_idx = %s;
    if (idx < numel) {
        out[idx] = %s;
    }
}`, kernelName, aIdxExpr, bIdxExpr, expr)
}

func addSource(aIdxExpr, bIdxExpr string) string {
	return binarySource("add_kernel", aIdxExpr, bIdxExpr, "a[a_idx] + b[b_idx]")
}

func mulSource(aIdxExpr, bIdxExpr string) string {
	return binarySource("mul_kernel", aIdxExpr, bIdxExpr, "a[a_idx] * b[b_idx]")
}

func maxSource(aIdxExpr, bIdxExpr string) string {
	return binarySource("max_kernel", aIdxExpr, bIdxExpr, "max(a[a_idx], b[b_idx])")
}

func modSource(aIdxExpr, bIdxExpr string) string {
	return binarySource("mod_kernel", aIdxExpr, bIdxExpr, "fmod(a[a_idx], b[b_idx])")
}

// reduceSource renders a reduction kernel that collapses one dimension via
// identity/accumulate, decomposing the flat output index i into the
// (front, back) coordinates either side of the reduced dimension and
// walking dim_size steps across it. inpIdxExpr is the input's stringified
// index expression over the free variable idx, which this kernel binds
// per reduction step rather than per output thread.
func reduceSource(kernelName, inpIdxExpr, identity, accumulate string) string {
	return fmt.Sprintf(`
extern "C" __global__ void %s(float *out, const float *inp, const int front_size, const int back_size, const int dim_size, int numel) {
    int i = blockIdx.x * blockDim.x + threadIdx.x;

    if (i < numel) {
        int a = i / back_size;
        int b = i %% back_size;
        float reduce_value = %s;
        for (int c = 0; c < dim_size; c++) {
            int idx = a * dim_size * back_size + c * back_size + b;
            int a_idx = %s;
            reduce_value = %s;
        }
        out[i] = reduce_value;
    }
}`, kernelName, identity, inpIdxExpr, accumulate)
}

func sumReduceSource(inpIdxExpr string) string {
	return reduceSource("sumreduce_kernel", inpIdxExpr, "0.0", "reduce_value + inp[a_idx]")
}

func maxReduceSource(inpIdxExpr string) string {
	return reduceSource("maxreduce_kernel", inpIdxExpr, "-__int_as_float(0x7f800000)", "max(reduce_value, inp[a_idx])")
}
