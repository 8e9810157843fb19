package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a Bitrix24 entity identifier. The REST API returns identifiers both
// as JSON strings and as numbers, so ID accepts either and keeps the textual
// form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("crm id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// FileContent is a named base64 payload. Bitrix24 expects it on the wire as a
// two-element array: [name, base64].
type FileContent struct {
	Name string
	Data string
}

func (f FileContent) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Name, f.Data})
}

func (f *FileContent) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	f.Name, f.Data = pair[0], pair[1]
	return nil
}

// StoredFile is the part of a disk.storage.uploadfile result the relay uses.
type StoredFile struct {
	ID          ID     `json:"ID"`
	DownloadURL string `json:"DOWNLOAD_URL"`
}

// Activity describes the crm.activity.add call used to link stored files to
// a deal.
type Activity struct {
	OwnerID     ID
	Subject     string
	Description string
	FileIDs     []ID
}

const (
	MethodUploadFile  = "disk.storage.uploadfile"
	MethodActivityAdd = "crm.activity.add"
	MethodDealUpdate  = "crm.deal.update"
)

const (
	// DefaultStorageID is the common storage every portal exposes.
	DefaultStorageID = "b1"

	OwnerTypeDeal        = 2
	ActivityTypeTask     = 4
	DefaultResponsibleID = 1

	DealFilesField = "UF_CRM_FILES"
)

type uploadFileRequest struct {
	ID          string         `json:"id"`
	Data        uploadFileData `json:"data"`
	FileContent FileContent    `json:"fileContent"`
}

type uploadFileData struct {
	Name string `json:"NAME"`
}

type activityAddRequest struct {
	Fields activityFields `json:"fields"`
}

type activityFields struct {
	OwnerTypeID   int    `json:"OWNER_TYPE_ID"`
	OwnerID       ID     `json:"OWNER_ID"`
	TypeID        int    `json:"TYPE_ID"`
	Subject       string `json:"SUBJECT"`
	Description   string `json:"DESCRIPTION"`
	Files         []ID   `json:"FILES"`
	Completed     string `json:"COMPLETED"`
	ResponsibleID int    `json:"RESPONSIBLE_ID"`
}

type dealUpdateRequest struct {
	ID     ID                       `json:"id"`
	Fields map[string][]FileContent `json:"fields"`
}

// envelope is the generic Bitrix24 REST response.
type envelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (e envelope) err() error {
	if e.Error == "" {
		return nil
	}
	if e.ErrorDescription != "" {
		return fmt.Errorf("%w: %s: %s", ErrRemote, e.Error, e.ErrorDescription)
	}
	return fmt.Errorf("%w: %s", ErrRemote, e.Error)
}

func (e envelope) hasResult() bool {
	return len(e.Result) > 0 && !bytes.Equal(e.Result, []byte("null"))
}
