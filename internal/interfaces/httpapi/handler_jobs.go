package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/fikstur/fikstur-bot/internal/usecase"
)

type fixtureSyncJobRequest struct {
	DispatchID string `json:"dispatch_id"`
}

func (h *Handler) RunFixtureSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFixtureSyncJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeFixtureSyncJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.syncService.SyncAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run fixture sync job failed", "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "fixture sync job finished",
		"dispatch_id", req.DispatchID,
		"run_id", report.RunID,
		"clubs", report.ClubCount,
		"matches", report.MatchCount,
		"failed", report.FailedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}

func decodeFixtureSyncJobRequest(r *http.Request) (fixtureSyncJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req fixtureSyncJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return fixtureSyncJobRequest{}, nil
		}
		return fixtureSyncJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
