package cuda

import (
	"strings"
	"testing"
)

func TestUnarySourceContainsExpression(t *testing.T) {
	src := log2Source()
	if !strings.Contains(src, "log2(inp[i])") {
		t.Fatalf("log2Source missing expression:\n%s", src)
	}
	if !strings.Contains(src, "log2_kernel") {
		t.Fatalf("log2Source missing kernel name:\n%s", src)
	}
}

func TestRecipSourceUsesReciprocalExpression(t *testing.T) {
	src := recipSource()
	if !strings.Contains(src, "1.0 / inp[i]") {
		t.Fatalf("recipSource missing expression:\n%s", src)
	}
}

func TestBinarySourceEmbedsIndexExpressions(t *testing.T) {
	src := addSource("idx", "(idx % 3)")
	if !strings.Contains(src, "int a_idx = idx;") {
		t.Fatalf("addSource missing a_idx expr:\n%s", src)
	}
	if !strings.Contains(src, "int b_idx = (idx % 3);") {
		t.Fatalf("addSource missing b_idx expr:\n%s", src)
	}
	if !strings.Contains(src, "a[a_idx] + b[b_idx]") {
		t.Fatalf("addSource missing add expression:\n%s", src)
	}
}

func TestModSourceUsesFmod(t *testing.T) {
	src := modSource("idx", "idx")
	if !strings.Contains(src, "fmod(a[a_idx], b[b_idx])") {
		t.Fatalf("modSource missing fmod call:\n%s", src)
	}
}

func TestMaxReduceSourceUsesNegativeInfinityIdentity(t *testing.T) {
	src := maxReduceSource("idx")
	if !strings.Contains(src, "-__int_as_float(0x7f800000)") {
		t.Fatalf("maxReduceSource missing -Inf identity:\n%s", src)
	}
}

func TestSumReduceSourceUsesZeroIdentity(t *testing.T) {
	src := sumReduceSource("idx")
	if !strings.Contains(src, "float reduce_value = 0.0;") {
		t.Fatalf("sumReduceSource missing zero identity:\n%s", src)
	}
	if !strings.Contains(src, "int a_idx = idx;") {
		t.Fatalf("sumReduceSource missing index substitution:\n%s", src)
	}
}
