package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yulian302/lfusys-services-crmrelay/metrics"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client talks to a Bitrix24 inbound webhook. Every call is addressed
// relative to webhook, which is the full REST prefix including the
// credentials segment, e.g. https://portal.bitrix24.ru/rest/1/token/.
type Client interface {
	UploadFile(ctx context.Context, webhook string, file FileContent) (StoredFile, error)
	AddActivity(ctx context.Context, webhook string, activity Activity) (ID, error)
	UpdateDealFiles(ctx context.Context, webhook string, dealID ID, files []FileContent) error
}

type RestClient struct {
	client   *resty.Client
	observer metrics.Observer
}

func NewRestClient(timeout time.Duration, observer metrics.Observer) *RestClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if observer == nil {
		observer = metrics.Nop()
	}

	return &RestClient{
		client:   resty.New().SetTimeout(timeout),
		observer: observer,
	}
}

func (c *RestClient) UploadFile(ctx context.Context, webhook string, file FileContent) (StoredFile, error) {
	env, err := c.call(ctx, webhook, MethodUploadFile, uploadFileRequest{
		ID:          DefaultStorageID,
		Data:        uploadFileData{Name: file.Name},
		FileContent: file,
	})
	if err != nil {
		return StoredFile{}, err
	}

	if !env.hasResult() {
		if remoteErr := env.err(); remoteErr != nil {
			return StoredFile{}, fmt.Errorf("%w: %w", ErrMissingResult, remoteErr)
		}
		return StoredFile{}, ErrMissingResult
	}

	var stored StoredFile
	if err := json.Unmarshal(env.Result, &stored); err != nil || stored.ID == "" {
		return StoredFile{}, ErrMissingResult
	}
	return stored, nil
}

func (c *RestClient) AddActivity(ctx context.Context, webhook string, activity Activity) (ID, error) {
	env, err := c.call(ctx, webhook, MethodActivityAdd, activityAddRequest{
		Fields: activityFields{
			OwnerTypeID:   OwnerTypeDeal,
			OwnerID:       activity.OwnerID,
			TypeID:        ActivityTypeTask,
			Subject:       activity.Subject,
			Description:   activity.Description,
			Files:         activity.FileIDs,
			Completed:     "Y",
			ResponsibleID: DefaultResponsibleID,
		},
	})
	if err != nil {
		return "", err
	}
	if err := env.err(); err != nil {
		return "", err
	}

	var id ID
	if env.hasResult() {
		// a non-id result still means the activity was accepted
		_ = json.Unmarshal(env.Result, &id)
	}
	return id, nil
}

func (c *RestClient) UpdateDealFiles(ctx context.Context, webhook string, dealID ID, files []FileContent) error {
	env, err := c.call(ctx, webhook, MethodDealUpdate, dealUpdateRequest{
		ID:     dealID,
		Fields: map[string][]FileContent{DealFilesField: files},
	})
	if err != nil {
		return err
	}
	return env.err()
}

func (c *RestClient) call(ctx context.Context, webhook, method string, body any) (envelope, error) {
	ctx, span := otel.Tracer("crm").Start(ctx, method)
	defer span.End()
	span.SetAttributes(attribute.String("crm.method", method))

	start := time.Now()
	env, err := c.post(ctx, Endpoint(webhook, method), method, body)
	c.observer.ObserveRemoteCall(method, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return env, err
}

func (c *RestClient) post(ctx context.Context, url, method string, body any) (envelope, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return envelope{}, fmt.Errorf("%s request: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s response (http %d): %w", method, resp.StatusCode(), err)
	}
	return env, nil
}

// Endpoint joins webhook and a REST method name.
func Endpoint(webhook, method string) string {
	if !strings.HasSuffix(webhook, "/") {
		webhook += "/"
	}
	return webhook + method
}

// IsSoftFailure reports whether err means the CRM answered but did not
// return the expected result.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrMissingResult)
}

// Shutdown drops idle keep-alive connections to CRM portals.
func (c *RestClient) Shutdown(context.Context) error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
