package services

import (
	"context"
	"fmt"

	"github.com/Yulian302/lfusys-services-crmrelay/crm"
	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/metrics"
	"github.com/Yulian302/lfusys-services-crmrelay/queues"
)

const ActivitySubject = "Issue Report Photos/Videos"

type RelayService interface {
	Relay(ctx context.Context, req RelayRequest) RelayResult
}

type RelayServiceImpl struct {
	crm         crm.Client
	relayNotify queues.RelayNotify
	observer    metrics.Observer

	logger logging.Logger
}

func NewRelayServiceImpl(client crm.Client, relayNotify queues.RelayNotify, observer metrics.Observer, l logging.Logger) *RelayServiceImpl {
	if relayNotify == nil {
		relayNotify = queues.NopRelayNotify{}
	}
	if observer == nil {
		observer = metrics.Nop()
	}
	return &RelayServiceImpl{
		crm:         client,
		relayNotify: relayNotify,
		observer:    observer,
		logger:      l,
	}
}

// Relay stores every file with the CRM one at a time, in input order, then
// attaches the results to the deal. Remote failures never abort the batch;
// they are reported in RelayResult.Errors.
func (s *RelayServiceImpl) Relay(ctx context.Context, req RelayRequest) RelayResult {
	l := logging.FromContext(ctx, s.logger).With("deal_id", req.DealID.String())
	l.Info("processing files", "files", len(req.Files))

	outcomes := make([]FileOutcome, 0, len(req.Files))
	for i, f := range req.Files {
		o := s.storeFile(ctx, l, req.Webhook, f, i, len(req.Files))
		s.observer.RecordFileOutcome(o.Kind.String())
		outcomes = append(outcomes, o)
	}

	var errs []ErrorRecord
	for _, o := range outcomes {
		if o.Kind == OutcomeFailed {
			errs = append(errs, ErrorRecord{File: o.Name, Error: o.Err.Error()})
		}
	}

	files := uploadedFiles(outcomes)
	if len(files) > 0 {
		errs = append(errs, s.attach(ctx, l, req, outcomes)...)
	}

	result := RelayResult{
		Success:  true,
		Uploaded: len(files),
		Files:    files,
		Errors:   errs,
	}

	s.notify(ctx, l, req.DealID, outcomes, result)
	return result
}

func (s *RelayServiceImpl) storeFile(ctx context.Context, l logging.Logger, webhook string, f FileInput, idx, total int) FileOutcome {
	l.Debug("uploading file",
		"file", f.Name,
		"position", idx+1,
		"total", total,
	)

	stored, err := s.crm.UploadFile(ctx, webhook, crm.FileContent{Name: f.Name, Data: f.Data})
	switch {
	case err == nil:
		l.Info("file uploaded to storage",
			"file", f.Name,
			"remote_id", stored.ID.String(),
		)
		return FileOutcome{
			Kind:        OutcomeStored,
			Name:        f.Name,
			Size:        f.Size,
			RemoteID:    stored.ID,
			DownloadURL: stored.DownloadURL,
		}
	case crm.IsSoftFailure(err):
		l.Warn("storage upload returned no id, falling back to deal field",
			"file", f.Name,
			"error", err,
		)
		return FileOutcome{
			Kind: OutcomeFallback,
			Name: f.Name,
			Size: f.Size,
			Data: f.Data,
		}
	default:
		l.Error("failed to upload file",
			"file", f.Name,
			"error", err,
		)
		return FileOutcome{
			Kind: OutcomeFailed,
			Name: f.Name,
			Size: f.Size,
			Err:  err,
		}
	}
}

// attach runs the activity and deal-field sub-steps independently; a failure
// in one does not skip the other.
func (s *RelayServiceImpl) attach(ctx context.Context, l logging.Logger, req RelayRequest, outcomes []FileOutcome) []ErrorRecord {
	var errs []ErrorRecord

	if ids := storedIDs(outcomes); len(ids) > 0 {
		l.Info("attaching files via activity", "files", len(ids))

		activityID, err := s.crm.AddActivity(ctx, req.Webhook, crm.Activity{
			OwnerID:     req.DealID,
			Subject:     ActivitySubject,
			Description: fmt.Sprintf("%d file(s) attached from issue report", len(ids)),
			FileIDs:     ids,
		})
		if err != nil {
			l.Error("failed to attach files via activity", "error", err)
			s.observer.RecordAttachmentError("activity")
			errs = append(errs, ErrorRecord{Step: StepAttachment, Error: err.Error()})
		} else {
			l.Info("files attached via activity", "activity_id", activityID.String())
		}
	}

	if files := fallbackContents(outcomes); len(files) > 0 {
		l.Info("updating deal with files via field", "files", len(files))

		if err := s.crm.UpdateDealFiles(ctx, req.Webhook, req.DealID, files); err != nil {
			l.Error("failed to update deal files", "error", err)
			s.observer.RecordAttachmentError("deal_update")
			errs = append(errs, ErrorRecord{Step: StepAttachment, Error: err.Error()})
		} else {
			l.Info("deal files updated", "files", len(files))
		}
	}

	return errs
}

func (s *RelayServiceImpl) notify(ctx context.Context, l logging.Logger, dealID crm.ID, outcomes []FileOutcome, result RelayResult) {
	msg := queues.RelayCompleteMessage{
		DealID:   dealID.String(),
		Uploaded: result.Uploaded,
		Errors:   len(result.Errors),
	}
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeStored:
			msg.Stored++
		case OutcomeFallback:
			msg.Fallback++
		case OutcomeFailed:
			msg.Failed++
		}
	}

	if err := s.relayNotify.NotifyRelayComplete(ctx, msg); err != nil {
		l.Error("failed to publish relay notification", "error", err)
	}
}

func uploadedFiles(outcomes []FileOutcome) []UploadedFile {
	files := make([]UploadedFile, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeStored:
			files = append(files, UploadedFile{
				Name:        o.Name,
				Size:        o.Size,
				ID:          o.RemoteID,
				DownloadURL: o.DownloadURL,
			})
		case OutcomeFallback:
			files = append(files, UploadedFile{
				Name:     o.Name,
				Size:     o.Size,
				Base64:   o.Data,
				Fallback: true,
			})
		}
	}
	return files
}

func storedIDs(outcomes []FileOutcome) []crm.ID {
	var ids []crm.ID
	for _, o := range outcomes {
		if o.Kind == OutcomeStored {
			ids = append(ids, o.RemoteID)
		}
	}
	return ids
}

func fallbackContents(outcomes []FileOutcome) []crm.FileContent {
	var files []crm.FileContent
	for _, o := range outcomes {
		if o.Kind == OutcomeFallback && o.Data != "" {
			files = append(files, crm.FileContent{Name: o.Name, Data: o.Data})
		}
	}
	return files
}
