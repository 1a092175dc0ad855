package intercept

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// AttachRod subscribes the interceptor to a Rod page. Metadata is taken
// from Network.responseReceived; the body is read once
// Network.loadingFinished fires for the same request. Responses still
// loading when detach is called are recorded with an error note.
//
// Attach before navigating so the document response itself is observed.
func (i *Interceptor) AttachRod(ctx context.Context, page *rod.Page) (detach func()) {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		i.cfg.Logger.Warn("intercept: network enable failed", "error", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	var mu sync.Mutex
	pending := make(map[proto.NetworkRequestID]Response)

	take := func(id proto.NetworkRequestID) (Response, bool) {
		mu.Lock()
		defer mu.Unlock()
		r, ok := pending[id]
		delete(pending, id)
		return r, ok
	}

	wait := page.Context(lctx).EachEvent(
		func(e *proto.NetworkResponseReceived) {
			r := fromProto(e)
			mu.Lock()
			pending[e.RequestID] = r
			mu.Unlock()
		},
		func(e *proto.NetworkLoadingFinished) {
			r, ok := take(e.RequestID)
			if !ok {
				return
			}
			id := e.RequestID
			i.Observe(ctx, r, func(rctx context.Context) ([]byte, error) {
				return readBody(rctx, page, id)
			})
		},
		func(e *proto.NetworkLoadingFailed) {
			r, ok := take(e.RequestID)
			if !ok {
				return
			}
			i.ObserveFailure(r, "loading failed: "+e.ErrorText)
		},
	)

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	return func() {
		cancel()
		<-done
		mu.Lock()
		defer mu.Unlock()
		for id, r := range pending {
			i.ObserveFailure(r, "incomplete: still loading when capture ended")
			delete(pending, id)
		}
	}
}

func readBody(ctx context.Context, page *rod.Page, id proto.NetworkRequestID) ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(page.Context(ctx))
	if err != nil {
		return nil, err
	}
	if res.Base64Encoded {
		return base64.StdEncoding.DecodeString(res.Body)
	}
	return []byte(res.Body), nil
}

func fromProto(e *proto.NetworkResponseReceived) Response {
	resp := e.Response
	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v.Str()
	}
	return Response{
		RequestID:    string(e.RequestID),
		URL:          resp.URL,
		Status:       resp.Status,
		MimeType:     resp.MIMEType,
		Headers:      headers,
		ResourceType: string(e.Type),
		FromCache:    resp.FromDiskCache || resp.FromServiceWorker,
	}
}
