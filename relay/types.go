package relay

import (
	"bytes"
	"encoding/json"

	"github.com/Yulian302/lfusys-services-crmrelay/crm"
	"github.com/Yulian302/lfusys-services-crmrelay/services"
)

// UploadRequest is the inbound POST body. Files is kept raw so that a
// non-array value is reported as a bad request rather than a decode failure.
type UploadRequest struct {
	Files   json.RawMessage `json:"files" swaggertype:"array,object"`
	DealID  crm.ID          `json:"dealId" swaggertype:"string" example:"42"`
	Webhook string          `json:"webhook" example:"https://portal.bitrix24.ru/rest/1/token/"`
}

const (
	errNoFiles   = "No files provided"
	errNoDealID  = "No deal ID provided"
	errNoWebhook = "No webhook provided"
)

// validationError is a malformed-request failure reported as 400.
type validationError string

func (e validationError) Error() string { return string(e) }

// toRelayRequest validates the body in the order files, dealId, webhook.
// A validationError means 400; any other error means the body could not be
// decoded at all.
func (r UploadRequest) toRelayRequest() (services.RelayRequest, error) {
	raw := bytes.TrimSpace(r.Files)
	if len(raw) == 0 || raw[0] != '[' {
		return services.RelayRequest{}, validationError(errNoFiles)
	}

	var files []services.FileInput
	if err := json.Unmarshal(raw, &files); err != nil {
		return services.RelayRequest{}, err
	}
	if len(files) == 0 {
		return services.RelayRequest{}, validationError(errNoFiles)
	}

	if r.DealID == "" {
		return services.RelayRequest{}, validationError(errNoDealID)
	}
	if r.Webhook == "" {
		return services.RelayRequest{}, validationError(errNoWebhook)
	}

	return services.RelayRequest{
		Files:   files,
		DealID:  r.DealID,
		Webhook: r.Webhook,
	}, nil
}
