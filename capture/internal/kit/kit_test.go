package kit

import (
	"context"
	"errors"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}
	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil || resp != "ok" {
		t.Fatalf("got %v, %v", resp, err)
	}
	want := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if len(order) != len(want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestLogging_PassesErrorThrough(t *testing.T) {
	errFail := errors.New("fail")
	ep := Logging(nil, "x")(func(context.Context, any) (any, error) { return nil, errFail })
	if _, err := ep(context.Background(), nil); !errors.Is(err, errFail) {
		t.Fatalf("got %v, want %v", err, errFail)
	}
}

func TestContext_Defaults(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetTransport(ctx) != "http" {
		t.Fatal("unexpected defaults")
	}
	ctx = WithTransport(WithRequestID(ctx, "r1"), "mcp")
	if GetRequestID(ctx) != "r1" || GetTransport(ctx) != "mcp" {
		t.Fatalf("got %q/%q", GetRequestID(ctx), GetTransport(ctx))
	}
}
