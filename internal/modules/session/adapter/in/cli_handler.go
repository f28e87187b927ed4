package in

import (
	"context"
	"strings"

	sessiondto "breathtrain/internal/modules/session/dto"
	sessionin "breathtrain/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Regimes(ctx context.Context, condition string, stage int) (sessiondto.SessionOutput, error) {
	return h.usecase.GetRegimesForSession(ctx, sessiondto.SessionInput{
		Condition: strings.ToUpper(strings.TrimSpace(condition)),
		Stage:     stage,
	})
}

// StartSegment opens a segment. A negative regimeID starts a rest segment.
func (h CLIHandler) StartSegment(ctx context.Context, regimeID int64, stage int) (sessiondto.StartSegmentOutput, error) {
	input := sessiondto.StartSegmentInput{Stage: stage}
	if regimeID >= 0 {
		input.RegimeID = &regimeID
	}
	return h.usecase.StartSegment(ctx, input)
}

func (h CLIHandler) EndSegment(ctx context.Context, segmentID string, avgCoherence float64) (sessiondto.EndSegmentOutput, error) {
	return h.usecase.EndSegment(ctx, sessiondto.EndSegmentInput{SegmentID: segmentID, AvgCoherence: avgCoherence})
}

func (h CLIHandler) Active(ctx context.Context) (sessiondto.ActiveSegmentOutput, error) {
	return h.usecase.GetActiveSegment(ctx)
}
