package taskboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Session is an authenticated client. It holds the token pair and
// transparently refreshes once when a call comes back 401, replaying
// the original request.
type Session struct {
	client *Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(c *Client, data AuthData) *Session {
	s := &Session{client: c}
	s.setTokens(data)
	return s
}

func (s *Session) setTokens(data AuthData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = data.AccessToken
	s.refreshToken = data.RefreshToken
	// 30 second buffer so we refresh before the server-side cutoff
	s.expiresAt = time.Now().Add(time.Duration(data.ExpiresIn)*time.Second - 30*time.Second)
}

// AccessToken returns the current access token, for callers that need
// to authenticate outside the SDK.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	token := s.refreshToken
	s.mu.Unlock()

	data, err := s.client.Refresh(ctx, token)
	if err != nil {
		return err
	}
	s.setTokens(data)
	return nil
}

// call performs an authenticated request, refreshing and retrying once
// on an expired access token. body must be replayable, so it is held as
// bytes.
func (s *Session) call(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	s.mu.Lock()
	expired := !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
	s.mu.Unlock()
	if expired {
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}

	resp, err := s.doOnce(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err := s.refresh(ctx); err != nil {
			return err
		}
		resp, err = s.doOnce(ctx, method, path, body, contentType)
		if err != nil {
			return err
		}
	}
	return decodeEnvelope(resp, out)
}

func (s *Session) doOnce(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (s *Session) callJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return s.call(ctx, method, path, body, contentType, out)
}

// Logout revokes the session's refresh token server-side.
func (s *Session) Logout(ctx context.Context) error {
	return s.callJSON(ctx, http.MethodPost, "/api/auth/logout",
		RefreshRequest{RefreshToken: s.RefreshToken()}, nil)
}

// Me fetches the authenticated user's profile.
func (s *Session) Me(ctx context.Context) (User, error) {
	var u User
	err := s.callJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u)
	return u, err
}

// UpdateProfile changes the caller's own name, email, or avatar.
func (s *Session) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (User, error) {
	var u User
	err := s.callJSON(ctx, http.MethodPut, "/api/auth/profile", req, &u)
	return u, err
}

// ChangePassword rotates the caller's password, revoking every refresh
// token including this session's.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.callJSON(ctx, http.MethodPut, "/api/auth/password", req, nil)
}

// EnrollTOTP starts second-factor enrollment.
func (s *Session) EnrollTOTP(ctx context.Context) (TOTPEnrollData, error) {
	var data TOTPEnrollData
	err := s.callJSON(ctx, http.MethodPost, "/api/auth/totp/enroll", nil, &data)
	return data, err
}

// ActivateTOTP turns the enrolled second factor on.
func (s *Session) ActivateTOTP(ctx context.Context, code string) error {
	return s.callJSON(ctx, http.MethodPost, "/api/auth/totp/activate", TOTPCodeRequest{Code: code}, nil)
}

// DisableTOTP removes the second factor.
func (s *Session) DisableTOTP(ctx context.Context, code string) error {
	return s.callJSON(ctx, http.MethodPost, "/api/auth/totp/disable", TOTPCodeRequest{Code: code}, nil)
}

// CreateTask creates a task owned by the caller.
func (s *Session) CreateTask(ctx context.Context, req TaskCreateRequest) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodPost, "/api/tasks", req, &t)
	return t, err
}

// GetTask loads one task the caller may see.
func (s *Session) GetTask(ctx context.Context, taskID string) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodGet, "/api/tasks/"+taskID, nil, &t)
	return t, err
}

// UpdateTask applies a partial update.
func (s *Session) UpdateTask(ctx context.Context, taskID string, req TaskUpdateRequest) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodPut, "/api/tasks/"+taskID, req, &t)
	return t, err
}

// DeleteTask removes a task. Creator or admin only.
func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	return s.callJSON(ctx, http.MethodDelete, "/api/tasks/"+taskID, nil, nil)
}

// SearchTasks lists tasks matching the filter, within the caller's
// visibility.
func (s *Session) SearchTasks(ctx context.Context, q TaskSearch) (TaskPage, error) {
	var page TaskPage
	err := s.callJSON(ctx, http.MethodGet, "/api/tasks"+q.encode(), nil, &page)
	return page, err
}

// TaskStats fetches the dashboard summary.
func (s *Session) TaskStats(ctx context.Context) (TaskStats, error) {
	var stats TaskStats
	err := s.callJSON(ctx, http.MethodGet, "/api/tasks/stats", nil, &stats)
	return stats, err
}

// AddComment appends a comment and returns the updated task.
func (s *Session) AddComment(ctx context.Context, taskID, text string) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodPost, "/api/tasks/"+taskID+"/comments", CommentRequest{Text: text}, &t)
	return t, err
}

// UpdateComment edits a comment's text. Author or admin only.
func (s *Session) UpdateComment(ctx context.Context, taskID, commentID, text string) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodPut, "/api/tasks/"+taskID+"/comments/"+commentID, CommentRequest{Text: text}, &t)
	return t, err
}

// DeleteComment removes a comment. Author or admin only.
func (s *Session) DeleteComment(ctx context.Context, taskID, commentID string) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodDelete, "/api/tasks/"+taskID+"/comments/"+commentID, nil, &t)
	return t, err
}

// UploadAttachment uploads one file to a task. Tasks hold at most three
// attachments.
func (s *Session) UploadAttachment(ctx context.Context, taskID, filename string, content io.Reader) (Task, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return Task{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return Task{}, err
	}
	if err := mw.Close(); err != nil {
		return Task{}, err
	}

	var t Task
	err = s.call(ctx, http.MethodPost, "/api/tasks/"+taskID+"/attachments",
		buf.Bytes(), mw.FormDataContentType(), &t)
	return t, err
}

// DeleteAttachment removes an attachment and its stored file.
func (s *Session) DeleteAttachment(ctx context.Context, taskID, attachmentID string) (Task, error) {
	var t Task
	err := s.callJSON(ctx, http.MethodDelete, "/api/tasks/"+taskID+"/attachments/"+attachmentID, nil, &t)
	return t, err
}

// ListUsers lists users. Admin only.
func (s *Session) ListUsers(ctx context.Context, search, role string, page, limit int) (UserPage, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if role != "" {
		q.Set("role", role)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var up UserPage
	err := s.callJSON(ctx, http.MethodGet, path, nil, &up)
	return up, err
}

// GetUser fetches a user with task counts. Self or admin.
func (s *Session) GetUser(ctx context.Context, userID string) (UserDetail, error) {
	var detail UserDetail
	err := s.callJSON(ctx, http.MethodGet, "/api/users/"+userID, nil, &detail)
	return detail, err
}

// UpdateUser applies admin edits to a user.
func (s *Session) UpdateUser(ctx context.Context, userID string, req UserUpdateRequest) (User, error) {
	var u User
	err := s.callJSON(ctx, http.MethodPut, "/api/users/"+userID, req, &u)
	return u, err
}

// DeleteUser removes a user. Admin only; refused while the user still
// has tasks.
func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	return s.callJSON(ctx, http.MethodDelete, "/api/users/"+userID, nil, nil)
}

// AssignableUsers lists active users for assignment dropdowns.
func (s *Session) AssignableUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.callJSON(ctx, http.MethodGet, "/api/users/assignable", nil, &users)
	return users, err
}

// encode turns the search options into a query string.
func (q TaskSearch) encode() string {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", q.Search)
	set("assignedTo", q.AssignedTo)
	set("createdBy", q.CreatedBy)
	set("sortBy", q.SortBy)
	set("sortOrder", q.SortOrder)
	for _, s := range q.Status {
		v.Add("status", s)
	}
	for _, p := range q.Priority {
		v.Add("priority", p)
	}
	for _, tag := range q.Tags {
		v.Add("tags", tag)
	}
	if q.DueFrom != nil {
		v.Set("dueFrom", q.DueFrom.Format(time.RFC3339))
	}
	if q.DueTo != nil {
		v.Set("dueTo", q.DueTo.Format(time.RFC3339))
	}
	if q.Overdue {
		v.Set("overdue", "true")
	}
	if q.IncludeArchived {
		v.Set("includeArchived", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
