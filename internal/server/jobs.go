package server

import (
	"context"
	"strings"
	"time"

	v1 "github.com/joseph-ayodele/docparser/api/docparser/v1"
	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/entity"
	"github.com/joseph-ayodele/docparser/internal/export"
	"github.com/joseph-ayodele/docparser/internal/repository"
)

const maxListLimit = 1000

func (s *DocumentServer) ListJobs(ctx context.Context, req *v1.ListJobsRequest) (*v1.ListJobsResponse, error) {
	filter, err := jobFilter(req.GetSessionId(), req.GetStatus())
	if err != nil {
		return nil, err
	}
	limit := req.GetLimit()
	if limit < 0 || limit > maxListLimit {
		return nil, common.InvalidArgumentErrorf("limit must be between 0 and %d", maxListLimit)
	}
	filter.Limit = limit

	jobs, err := s.registry.Orchestrator().Jobs().List(ctx, filter)
	if err != nil {
		s.logger.Error("jobs.list.failed", "session_id", filter.SessionID, "error", err)
		return nil, common.InternalError("list jobs failed")
	}
	out := make([]*v1.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toPBJob(j))
	}
	return &v1.ListJobsResponse{Jobs: out}, nil
}

func (s *DocumentServer) ExportJobs(ctx context.Context, req *v1.ExportJobsRequest) (*v1.ExportJobsResponse, error) {
	filter, err := jobFilter(req.GetSessionId(), req.GetStatus())
	if err != nil {
		return nil, err
	}
	window, err := export.ParseWindow(req.GetFromDate(), req.GetToDate())
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}

	xlsx, err := s.exporter.ExportJobsXLSX(ctx, filter, window)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "session_id", filter.SessionID, "error", err)
		return nil, common.InternalError(err.Error())
	}
	return &v1.ExportJobsResponse{Xlsx: xlsx}, nil
}

func jobFilter(sessionID, status string) (repository.JobFilter, error) {
	filter := repository.JobFilter{SessionID: strings.TrimSpace(sessionID)}
	if status = strings.TrimSpace(status); status != "" {
		st, ok := constants.ParseJobStatus(status)
		if !ok {
			return filter, common.InvalidArgumentErrorf("unknown status %q", status)
		}
		filter.Status = st
	}
	return filter, nil
}

func toPBJob(j *entity.Job) *v1.Job {
	out := &v1.Job{
		Id:        j.ID.String(),
		SessionId: j.SessionID,
		Filename:  j.Filename,
		Format:    j.Format,
		Status:    string(j.Status),
		TextChars: j.TextChars,
		StartedAt: j.StartedAt.UTC().Format(time.RFC3339Nano),
	}
	if j.DocType != nil {
		out.DocType = *j.DocType
	}
	if j.ErrorKind != nil {
		out.ErrorKind = *j.ErrorKind
	}
	if j.ErrorMessage != nil {
		out.ErrorMessage = *j.ErrorMessage
	}
	if j.FinishedAt != nil {
		out.FinishedAt = j.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}
