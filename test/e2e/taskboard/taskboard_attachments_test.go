package taskboard_test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// TestAttachmentUploadAndDownload verifies the upload round-trip,
// metadata, and that the stored file is served back.
func TestAttachmentUploadAndDownload(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Uploader", "uploader@taskboard.test")
	task := createTask(t, session, "Document holder")

	content := "meeting notes from monday"
	task, err := session.UploadAttachment(t.Context(), task.ID, "notes.txt", strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, task.Attachments, 1)

	att := task.Attachments[0]
	require.Equal(t, "notes.txt", att.OriginalName)
	require.Equal(t, int64(len(content)), att.Size)
	require.NotEmpty(t, att.URL)

	// The file is served from the uploads prefix
	resp, err := http.Get(baseURL + att.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, content, string(body))

	t.Logf("Attachment round-trip verified: %s", att.URL)
}

// TestAttachmentCap verifies the three-attachment limit and that
// deleting one frees a slot.
func TestAttachmentCap(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Hoarder", "hoarder@taskboard.test")
	task := createTask(t, session, "Crowded work")

	var err error
	for i := 0; i < 3; i++ {
		task, err = session.UploadAttachment(t.Context(), task.ID,
			fmt.Sprintf("file-%d.txt", i), strings.NewReader("payload"))
		require.NoError(t, err)
	}
	require.Len(t, task.Attachments, 3)

	_, err = session.UploadAttachment(t.Context(), task.ID, "one-too-many.txt", strings.NewReader("payload"))
	require.Error(t, err, "Fourth attachment should be refused")

	// Deleting one frees a slot
	task, err = session.DeleteAttachment(t.Context(), task.ID, task.Attachments[0].ID)
	require.NoError(t, err)
	require.Len(t, task.Attachments, 2)

	task, err = session.UploadAttachment(t.Context(), task.ID, "replacement.txt", strings.NewReader("payload"))
	require.NoError(t, err)
	require.Len(t, task.Attachments, 3)

	t.Logf("Attachment cap verified")
}

// TestAttachmentPermissions verifies uninvolved users cannot touch
// attachments.
func TestAttachmentPermissions(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	owner := registerUser(t, client, "Owner", "owner@taskboard.test")
	outsider := registerUser(t, client, "Outsider", "outsider@taskboard.test")

	task := createTask(t, owner, "Private work")
	task, err := owner.UploadAttachment(t.Context(), task.ID, "secret.txt", strings.NewReader("contents"))
	require.NoError(t, err)

	_, err = outsider.UploadAttachment(t.Context(), task.ID, "intruder.txt", strings.NewReader("x"))
	assertForbidden(t, err, "Outsider uploading an attachment")

	_, err = outsider.DeleteAttachment(t.Context(), task.ID, task.Attachments[0].ID)
	assertForbidden(t, err, "Outsider deleting an attachment")

	t.Logf("Attachment permissions verified")
}
