package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Yulian302/lfusys-services-crmrelay/crm"
	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/queues"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhook = "https://portal.example/rest/1/token/"

type activityCall struct {
	webhook  string
	activity crm.Activity
}

type dealUpdateCall struct {
	webhook string
	dealID  crm.ID
	files   []crm.FileContent
}

// fakeCRM answers UploadFile from a per-name table; names without an entry
// are treated as soft failures.
type fakeCRM struct {
	uploads     map[string]uploadReply
	activityErr error
	dealErr     error

	uploadOrder []string
	activities  []activityCall
	dealUpdates []dealUpdateCall
}

type uploadReply struct {
	stored crm.StoredFile
	err    error
}

func (f *fakeCRM) UploadFile(_ context.Context, _ string, file crm.FileContent) (crm.StoredFile, error) {
	f.uploadOrder = append(f.uploadOrder, file.Name)
	reply, ok := f.uploads[file.Name]
	if !ok {
		return crm.StoredFile{}, crm.ErrMissingResult
	}
	return reply.stored, reply.err
}

func (f *fakeCRM) AddActivity(_ context.Context, webhook string, activity crm.Activity) (crm.ID, error) {
	f.activities = append(f.activities, activityCall{webhook: webhook, activity: activity})
	if f.activityErr != nil {
		return "", f.activityErr
	}
	return "900", nil
}

func (f *fakeCRM) UpdateDealFiles(_ context.Context, webhook string, dealID crm.ID, files []crm.FileContent) error {
	f.dealUpdates = append(f.dealUpdates, dealUpdateCall{webhook: webhook, dealID: dealID, files: files})
	return f.dealErr
}

type fakeNotify struct {
	messages []queues.RelayCompleteMessage
	err      error
}

func (f *fakeNotify) NotifyRelayComplete(_ context.Context, msg queues.RelayCompleteMessage) error {
	f.messages = append(f.messages, msg)
	return f.err
}

func stored(id string) uploadReply {
	return uploadReply{stored: crm.StoredFile{ID: crm.ID(id), DownloadURL: "https://portal.example/d/" + id}}
}

func newService(c crm.Client, n queues.RelayNotify) *RelayServiceImpl {
	return NewRelayServiceImpl(c, n, nil, logging.Nop())
}

func files(names ...string) []FileInput {
	out := make([]FileInput, 0, len(names))
	for i, n := range names {
		out = append(out, FileInput{Name: n, Size: int64(100 * (i + 1)), Data: "data-" + n})
	}
	return out
}

func TestRelayMixedStoredAndFallback(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{
		"a.jpg": stored("10"),
		"c.jpg": stored("11"),
	}}
	n := &fakeNotify{}

	res := newService(c, n).Relay(context.Background(), RelayRequest{
		Files:   files("a.jpg", "b.jpg", "c.jpg"),
		DealID:  "42",
		Webhook: webhook,
	})

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Uploaded)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []UploadedFile{
		{Name: "a.jpg", Size: 100, ID: "10", DownloadURL: "https://portal.example/d/10"},
		{Name: "b.jpg", Size: 200, Base64: "data-b.jpg", Fallback: true},
		{Name: "c.jpg", Size: 300, ID: "11", DownloadURL: "https://portal.example/d/11"},
	}, res.Files)

	require.Len(t, c.activities, 1)
	act := c.activities[0]
	assert.Equal(t, webhook, act.webhook)
	assert.Equal(t, crm.ID("42"), act.activity.OwnerID)
	assert.Equal(t, []crm.ID{"10", "11"}, act.activity.FileIDs)
	assert.Equal(t, ActivitySubject, act.activity.Subject)
	assert.Equal(t, "2 file(s) attached from issue report", act.activity.Description)

	require.Len(t, c.dealUpdates, 1)
	assert.Equal(t, crm.ID("42"), c.dealUpdates[0].dealID)
	assert.Equal(t, []crm.FileContent{{Name: "b.jpg", Data: "data-b.jpg"}}, c.dealUpdates[0].files)

	require.Len(t, n.messages, 1)
	assert.Equal(t, queues.RelayCompleteMessage{DealID: "42", Uploaded: 3, Stored: 2, Fallback: 1}, n.messages[0])
}

func TestRelayAllStoredOnlyAddsActivity(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{
		"a": stored("1"),
		"b": stored("2"),
	}}

	res := newService(c, nil).Relay(context.Background(), RelayRequest{Files: files("a", "b"), DealID: "7", Webhook: webhook})

	assert.Equal(t, 2, res.Uploaded)
	assert.Len(t, c.activities, 1)
	assert.Empty(t, c.dealUpdates)
}

func TestRelayAllFallbackOnlyUpdatesDeal(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{}}

	res := newService(c, nil).Relay(context.Background(), RelayRequest{Files: files("a", "b"), DealID: "7", Webhook: webhook})

	assert.Equal(t, 2, res.Uploaded)
	assert.Empty(t, c.activities)
	require.Len(t, c.dealUpdates, 1)
	assert.Equal(t, []crm.FileContent{
		{Name: "a", Data: "data-a"},
		{Name: "b", Data: "data-b"},
	}, c.dealUpdates[0].files)
}

func TestRelayHardFailureDoesNotStopBatch(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{
		"a": {err: errors.New("disk.storage.uploadfile request: connection reset")},
		"b": stored("5"),
	}}

	res := newService(c, nil).Relay(context.Background(), RelayRequest{Files: files("a", "b"), DealID: "7", Webhook: webhook})

	assert.Equal(t, []string{"a", "b"}, c.uploadOrder)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, "b", res.Files[0].Name)
	assert.Equal(t, []ErrorRecord{
		{File: "a", Error: "disk.storage.uploadfile request: connection reset"},
	}, res.Errors)
	assert.Len(t, c.activities, 1)
	assert.Empty(t, c.dealUpdates)
}

func TestRelayAllFailedSkipsAttachment(t *testing.T) {
	boom := errors.New("boom")
	c := &fakeCRM{uploads: map[string]uploadReply{
		"a": {err: boom},
		"b": {err: boom},
	}}
	n := &fakeNotify{}

	res := newService(c, n).Relay(context.Background(), RelayRequest{Files: files("a", "b"), DealID: "7", Webhook: webhook})

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Uploaded)
	assert.NotNil(t, res.Files)
	assert.Empty(t, res.Files)
	assert.Len(t, res.Errors, 2)
	assert.Empty(t, c.activities)
	assert.Empty(t, c.dealUpdates)
	require.Len(t, n.messages, 1)
	assert.Equal(t, 2, n.messages[0].Failed)
}

func TestRelayAttachmentStepsAreIndependent(t *testing.T) {
	c := &fakeCRM{
		uploads:     map[string]uploadReply{"a": stored("1")},
		activityErr: fmt.Errorf("%w: ERROR_CORE", crm.ErrRemote),
		dealErr:     errors.New("crm.deal.update request: timeout"),
	}

	res := newService(c, nil).Relay(context.Background(), RelayRequest{Files: files("a", "b"), DealID: "7", Webhook: webhook})

	require.Len(t, c.activities, 1)
	require.Len(t, c.dealUpdates, 1, "deal update must run even when the activity call fails")
	assert.Equal(t, []ErrorRecord{
		{Step: StepAttachment, Error: "crm error: ERROR_CORE"},
		{Step: StepAttachment, Error: "crm.deal.update request: timeout"},
	}, res.Errors)
	assert.Equal(t, 2, res.Uploaded)
}

func TestRelayFallbackWithEmptyDataIsNotSentToDeal(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{}}

	res := newService(c, nil).Relay(context.Background(), RelayRequest{
		Files:   []FileInput{{Name: "empty.txt"}},
		DealID:  "7",
		Webhook: webhook,
	})

	assert.Equal(t, 1, res.Uploaded)
	assert.True(t, res.Files[0].Fallback)
	assert.Empty(t, c.dealUpdates)
}

func TestRelayNotificationFailureIsSwallowed(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{"a": stored("1")}}
	n := &fakeNotify{err: errors.New("sqs down")}

	res := newService(c, n).Relay(context.Background(), RelayRequest{Files: files("a"), DealID: "7", Webhook: webhook})

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Len(t, n.messages, 1)
}

func TestRelayAccountsForEveryInputFile(t *testing.T) {
	c := &fakeCRM{uploads: map[string]uploadReply{
		"ok":   stored("1"),
		"hard": {err: errors.New("boom")},
	}}
	in := files("ok", "soft", "hard", "ok", "soft")

	res := newService(c, nil).Relay(context.Background(), RelayRequest{Files: in, DealID: "7", Webhook: webhook})

	perFile := 0
	for _, e := range res.Errors {
		if e.File != "" {
			perFile++
		}
	}
	assert.Equal(t, len(in), res.Uploaded+perFile)
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "stored", OutcomeStored.String())
	assert.Equal(t, "fallback", OutcomeFallback.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", OutcomeKind(0).String())
}
