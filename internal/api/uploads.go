// Copyright (c) 2026 ExamGate. All rights reserved.

package api

import (
	"errors"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	requestutil "github.com/examgate/examgate/internal/platform/request"
	"github.com/examgate/examgate/internal/platform/respond"
)

// startedAt anchors the uptime figure on /admin/system.
var startedAt = time.Now().UTC()

// acceptUpload handles POST /api/v1/uploads.
//
// The interesting work happens upstream: the upload rate budget, the body
// size cap, and authentication have all run by the time this handler sees the
// request. It drains the (already capped) body and acknowledges receipt.
func acceptUpload(responder *respond.Responder) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		principal, err := requestutil.RequiredPrincipal(request)
		if err != nil {
			responder.Error(writer, request, err)
			return
		}

		received, err := io.Copy(io.Discard, request.Body)
		if err != nil {
			// MaxBytesReader tripped mid-stream.
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				responder.Error(writer, request, apperr.PayloadTooLarge(maxBytesErr.Limit))
				return
			}
			responder.Error(writer, request, apperr.Internal(err))
			return
		}

		responder.Created(writer, map[string]any{
			"received_bytes": received,
			"uploaded_by":    principal.ID,
		})
	}
}

// systemInfo handles GET /api/v1/admin/system.
func systemInfo(responder *respond.Responder) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var memory runtime.MemStats
		runtime.ReadMemStats(&memory)

		responder.OK(writer, map[string]any{
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"heap_in_use":    memory.HeapInuse,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	}
}
