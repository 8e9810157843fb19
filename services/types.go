package services

import "github.com/Yulian302/lfusys-services-crmrelay/crm"

type FileInput struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Data string `json:"data"` // base64
}

type RelayRequest struct {
	Files   []FileInput
	DealID  crm.ID
	Webhook string
}

type OutcomeKind int

const (
	OutcomeStored OutcomeKind = iota + 1
	OutcomeFallback
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStored:
		return "stored"
	case OutcomeFallback:
		return "fallback"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileOutcome is the result of the storage step for one input file.
// RemoteID and DownloadURL are set for OutcomeStored, Data for
// OutcomeFallback and Err for OutcomeFailed.
type FileOutcome struct {
	Kind OutcomeKind
	Name string
	Size int64

	RemoteID    crm.ID
	DownloadURL string
	Data        string
	Err         error
}

type UploadedFile struct {
	Name        string `json:"name" example:"photo.jpg"`
	Size        int64  `json:"size" example:"20480"`
	ID          crm.ID `json:"id,omitempty" swaggertype:"string" example:"10"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Base64      string `json:"base64,omitempty"`
	Fallback    bool   `json:"fallback,omitempty"`
}

const StepAttachment = "attachment"

type ErrorRecord struct {
	File  string `json:"file,omitempty" example:"photo.jpg"`
	Step  string `json:"step,omitempty" example:"attachment"`
	Error string `json:"error" example:"disk.storage.uploadfile request: connection refused"`
}

type RelayResult struct {
	Success  bool           `json:"success" example:"true"`
	Uploaded int            `json:"uploaded" example:"3"`
	Files    []UploadedFile `json:"files"`
	Errors   []ErrorRecord  `json:"errors,omitempty"`
}
